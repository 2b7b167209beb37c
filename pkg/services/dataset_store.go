package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
)

// DatasetStore keeps uploaded datasets in memory for the lifetime of the
// process. There is no persistence; a dataset lives until it is replaced or
// the server restarts. Reads vastly outnumber writes, hence the RWMutex.
type DatasetStore struct {
	datasets map[string]*models.Dataset
	mu       sync.RWMutex
}

// NewDatasetStore creates an empty store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{
		datasets: make(map[string]*models.Dataset),
	}
}

// Put assigns the dataset an ID and stores it. The returned ID is what
// clients reference in subsequent preview/stages/report calls.
func (s *DatasetStore) Put(ds *models.Dataset) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds.ID = uuid.NewString()
	s.datasets[ds.ID] = ds
	return ds.ID
}

// Get returns the dataset for an ID.
func (s *DatasetStore) Get(id string) (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, fmt.Errorf("dataset %q not found", id)
	}
	return ds, nil
}

// Delete removes a dataset. Removing an unknown ID is a no-op.
func (s *DatasetStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.datasets, id)
}

// Count returns the number of stored datasets.
func (s *DatasetStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
