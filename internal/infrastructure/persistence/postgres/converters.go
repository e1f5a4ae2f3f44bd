package postgres

import (
	"fmt"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// Times of day are stored as integer minutes since midnight; NULL means no
// due time.

func timeOfDayToMinutes(t *domain.TimeOfDay) *int {
	if t == nil {
		return nil
	}
	m := t.Minutes()
	return &m
}

func minutesToTimeOfDay(m *int) (*domain.TimeOfDay, error) {
	if m == nil {
		return nil, nil
	}
	t, err := domain.TimeOfDayFromMinutes(*m)
	if err != nil {
		return nil, fmt.Errorf("invalid stored time of day: %w", err)
	}
	return &t, nil
}
