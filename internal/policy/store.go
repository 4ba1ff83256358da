package policy

import (
	"errors"
	"sync/atomic"
)

// Store holds the active policy. Readers always see a fully validated policy;
// replacements are validated before the atomic swap.
type Store struct {
	current atomic.Pointer[Policy]
	path    string
}

// NewStore creates a store seeded with p. path is the file Reload re-reads;
// it may be empty when the policy is built in.
func NewStore(p *Policy, path string) (*Store, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.current.Store(p)
	return s, nil
}

// Open loads the policy at path, or the default policy when path is empty.
func Open(path string) (*Store, error) {
	if path == "" {
		return NewStore(Default(), "")
	}
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewStore(p, path)
}

// Current returns the active policy. The result must not be modified.
func (s *Store) Current() *Policy {
	return s.current.Load()
}

// Swap validates p and makes it the active policy.
func (s *Store) Swap(p *Policy) error {
	if err := Validate(p); err != nil {
		return err
	}
	s.current.Store(p)
	return nil
}

// Reload re-reads the policy file. On any error the active policy is kept.
func (s *Store) Reload() (*Policy, error) {
	if s.path == "" {
		return nil, errors.New("no policy file configured")
	}
	p, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	s.current.Store(p)
	return p, nil
}
