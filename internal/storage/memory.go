package storage

import (
	"context"
	"errors"
	"sync"

	"actuation/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	manifests   map[string]model.LayoutManifest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.manifests = make(map[string]model.LayoutManifest)
	return nil
}

func (s *MemoryStore) SaveManifest(_ context.Context, manifest model.LayoutManifest) error {
	if err := checkVersion(manifest.VersionedRecord); err != nil {
		return err
	}
	if err := validateManifest(manifest); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.manifests[manifest.ID] = cloneManifest(manifest)
	return nil
}

func (s *MemoryStore) GetManifest(_ context.Context, id string) (model.LayoutManifest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	manifest, ok := s.manifests[id]
	if !ok {
		return model.LayoutManifest{}, false, nil
	}
	return cloneManifest(manifest), true, nil
}

func (s *MemoryStore) ListManifests(_ context.Context, environment string) ([]model.LayoutManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.LayoutManifest, 0, len(s.manifests))
	for _, manifest := range s.manifests {
		if environment != "" && manifest.Environment != environment {
			continue
		}
		out = append(out, cloneManifest(manifest))
	}
	sortManifests(out)
	return out, nil
}

func (s *MemoryStore) DeleteManifest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.manifests, id)
	return nil
}
