package rules

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Store publishes the current Rules snapshot. Reads are lock-free; Replace
// swaps the whole snapshot so a calculation holding an older value is
// never affected.
type Store struct {
	current atomic.Pointer[Rules]
	logger  *zap.Logger
}

// NewStore creates a store seeded with initial.
func NewStore(logger *zap.Logger, initial Rules) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	s := &Store{logger: logger}
	snapshot := initial.clone()
	s.current.Store(&snapshot)
	return s, nil
}

// NewDefaultStore creates a store holding Default().
func NewDefaultStore() *Store {
	s, _ := NewStore(nil, Default())
	return s
}

// Snapshot returns a copy of the current rules.
func (s *Store) Snapshot() Rules {
	return s.current.Load().clone()
}

// Replace validates next and publishes it.
func (s *Store) Replace(next Rules) error {
	if err := next.Validate(); err != nil {
		s.logger.Warn("rejected regulatory rules reload",
			zap.String("op", "rules.Replace"),
			zap.Error(err),
		)
		return err
	}
	snapshot := next.clone()
	previous := s.current.Swap(&snapshot)
	s.logger.Info("regulatory rules reloaded",
		zap.String("op", "rules.Replace"),
		zap.String("previous", previous.Version()),
		zap.String("current", snapshot.Version()),
	)
	return nil
}
