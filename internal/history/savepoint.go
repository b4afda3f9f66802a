package history

import (
	"fmt"

	"github.com/google/uuid"
)

// SavePoint marks a position in the history, typically the state of a
// document when it was last saved.
type SavePoint struct {
	id uuid.UUID
}

// EmptySavePoint is the save point of a history with nothing done.
var EmptySavePoint = SavePoint{}

// IsEmpty returns true if the save point refers to the start of history.
func (sp SavePoint) IsEmpty() bool {
	return sp.id == uuid.Nil
}

// String returns the identifier of the transaction the save point follows.
func (sp SavePoint) String() string {
	return sp.id.String()
}

// ParseSavePoint restores a save point from its String form.
func ParseSavePoint(s string) (SavePoint, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SavePoint{}, fmt.Errorf("parse save point: %w", err)
	}
	return SavePoint{id: id}, nil
}

// CreateSavePoint records the current cursor position.
func (s *Stack) CreateSavePoint() SavePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.position == 0 {
		return EmptySavePoint
	}
	return SavePoint{id: s.transactions[s.position-1].ID()}
}

// IsAtSavePoint returns true if the cursor is where sp was created, i.e.
// nothing changed since.
func (s *Stack) IsAtSavePoint(sp SavePoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.position == 0 {
		return sp.IsEmpty()
	}
	return s.transactions[s.position-1].ID() == sp.id
}

// savePointPosition returns the cursor position sp stands for.
func (s *Stack) savePointPosition(sp SavePoint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp.IsEmpty() {
		return 0, nil
	}
	for i, t := range s.transactions {
		if t.ID() == sp.id {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrSavePointNotFound, sp)
}

// RevertTo rolls back or forward until the cursor is at sp.
// An empty save point can only be reached if the oldest retained
// transaction is the first one ever completed; otherwise the stack stops
// at position zero.
func (s *Stack) RevertTo(sp SavePoint) error {
	target, err := s.savePointPosition(sp)
	if err != nil {
		return err
	}

	for {
		pos := s.Position()
		switch {
		case pos > target:
			if err := s.Rollback(); err != nil {
				return err
			}
		case pos < target:
			if err := s.Rollforward(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
