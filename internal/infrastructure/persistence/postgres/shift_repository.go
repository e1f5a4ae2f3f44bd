package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cafeops/shiftdeck/internal/domain"
)

const shiftSessionColumns = `id, site_id, shift_type, template_id, started_by, started_at, completed_by, completed_at, is_complete`

func scanShiftSession(row pgx.Row) (*domain.ShiftSession, error) {
	var (
		session   domain.ShiftSession
		shiftType string
	)
	err := row.Scan(
		&session.ID,
		&session.SiteID,
		&shiftType,
		&session.TemplateID,
		&session.StartedBy,
		&session.StartedAt,
		&session.CompletedBy,
		&session.CompletedAt,
		&session.IsComplete,
	)
	if err != nil {
		return nil, err
	}
	session.ShiftType = domain.ShiftType(shiftType)
	session.StartedAt = session.StartedAt.UTC()
	if session.CompletedAt != nil {
		t := session.CompletedAt.UTC()
		session.CompletedAt = &t
	}
	return &session, nil
}

// CreateShift opens a new shift session. The partial unique index on open
// sessions rejects a second open shift for the same site.
func (s *Store) CreateShift(ctx context.Context, session *domain.ShiftSession) (*domain.ShiftSession, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO shift_sessions (id, site_id, shift_type, template_id, started_by, started_at, is_complete)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING `+shiftSessionColumns,
		session.ID, session.SiteID, string(session.ShiftType), session.TemplateID,
		session.StartedBy, session.StartedAt,
	)

	created, err := scanShiftSession(row)
	if err != nil {
		if isUniqueViolation(err, "idx_shift_sessions_open_site") {
			return nil, fmt.Errorf("%w: site %s", domain.ErrShiftAlreadyOpen, session.SiteID)
		}
		return nil, fmt.Errorf("failed to create shift session: %w", err)
	}
	return created, nil
}

// FindShiftByID retrieves a shift session by its ID.
func (s *Store) FindShiftByID(ctx context.Context, id string) (*domain.ShiftSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+shiftSessionColumns+`
		FROM shift_sessions
		WHERE id = $1`, id)

	session, err := scanShiftSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrShiftNotFound, id)
		}
		return nil, fmt.Errorf("failed to find shift session: %w", err)
	}
	return session, nil
}

// FindOpenShiftBySite retrieves the site's open session.
func (s *Store) FindOpenShiftBySite(ctx context.Context, siteID string) (*domain.ShiftSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+shiftSessionColumns+`
		FROM shift_sessions
		WHERE site_id = $1 AND NOT is_complete`, siteID)

	session, err := scanShiftSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no open shift for site %s", domain.ErrShiftNotFound, siteID)
		}
		return nil, fmt.Errorf("failed to find open shift: %w", err)
	}
	return session, nil
}

// FindOpenShifts lists every open session across all sites.
func (s *Store) FindOpenShifts(ctx context.Context) ([]*domain.ShiftSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+shiftSessionColumns+`
		FROM shift_sessions
		WHERE NOT is_complete
		ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list open shifts: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.ShiftSession
	for rows.Next() {
		session, err := scanShiftSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open shifts: %w", err)
	}
	return sessions, nil
}

// FindShiftsInRange lists a site's sessions whose start falls in [from, to),
// oldest first.
func (s *Store) FindShiftsInRange(ctx context.Context, siteID string, from, to time.Time) ([]*domain.ShiftSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+shiftSessionColumns+`
		FROM shift_sessions
		WHERE site_id = $1 AND started_at >= $2 AND started_at < $3
		ORDER BY started_at`, siteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts in range: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.ShiftSession
	for rows.Next() {
		session, err := scanShiftSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts in range: %w", err)
	}
	return sessions, nil
}

// CompleteShift marks a session complete. The WHERE clause distinguishes a
// missing session from an already-closed one.
func (s *Store) CompleteShift(ctx context.Context, shiftID, completedBy string, completedAt time.Time) (*domain.ShiftSession, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE shift_sessions
		SET completed_by = $2, completed_at = $3, is_complete = TRUE
		WHERE id = $1 AND NOT is_complete
		RETURNING `+shiftSessionColumns,
		shiftID, completedBy, completedAt,
	)

	session, err := scanShiftSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the session never existed or it is already closed.
			if _, findErr := s.FindShiftByID(ctx, shiftID); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrShiftComplete, shiftID)
		}
		return nil, fmt.Errorf("failed to complete shift: %w", err)
	}
	return session, nil
}
