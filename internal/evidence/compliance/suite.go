// Package compliance provides a shared conformance test suite for
// evidence.Store implementations.
package compliance

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafeops/shiftdeck/internal/evidence"
)

// RunStoreComplianceTest runs a standard set of tests against a Store
// implementation. setup returns a fresh store plus a teardown function.
func RunStoreComplianceTest(t *testing.T, setup func() (evidence.Store, func())) {
	t.Run("SaveAndOpen", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := uuid.New().String() + ".jpg"
		payload := []byte("fake jpeg bytes")

		require.NoError(t, store.Save(ctx, key, bytes.NewReader(payload)))

		r, err := store.Open(ctx, key)
		require.NoError(t, err)
		defer r.Close()

		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()

		_, err := store.Open(context.Background(), "missing.jpg")
		assert.ErrorIs(t, err, evidence.ErrNotFound)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := uuid.New().String() + ".jpg"
		require.NoError(t, store.Save(ctx, key, bytes.NewReader([]byte("first"))))
		require.NoError(t, store.Save(ctx, key, bytes.NewReader([]byte("second"))))

		r, err := store.Open(ctx, key)
		require.NoError(t, err)
		defer r.Close()

		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("Delete", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		key := uuid.New().String() + ".jpg"
		require.NoError(t, store.Save(ctx, key, bytes.NewReader([]byte("data"))))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Open(ctx, key)
		assert.ErrorIs(t, err, evidence.ErrNotFound)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()

		err := store.Delete(context.Background(), "missing.jpg")
		assert.ErrorIs(t, err, evidence.ErrNotFound)
	})
}
