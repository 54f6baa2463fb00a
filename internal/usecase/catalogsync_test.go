package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

// failingCatalog rejects every submission
type failingCatalog struct {
	stubCatalog
	mu    sync.Mutex
	calls int
}

func (f *failingCatalog) SubmitObservation(ctx context.Context, obs *domain.Observation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return domain.ErrCatalogUnavailable
}

func TestCatalogSync_RecordsObservation(t *testing.T) {
	catalog := newStubCatalog()
	s := NewCatalogSync(catalog, true, time.Second, zap.NewNop())

	s.Sync(domain.Observation{
		Barcode: "00012345",
		ActorID: "shopper-1",
		Purpose: domain.PurposePlanned,
	})
	s.Wait()

	obs := catalog.observed()
	require.Len(t, obs, 1)
	assert.Equal(t, "00012345", obs[0].Barcode)
}

func TestCatalogSync_FailureIsSwallowed(t *testing.T) {
	catalog := &failingCatalog{}
	s := NewCatalogSync(catalog, true, time.Second, zap.NewNop())

	// The caller never sees a sync failure
	s.Sync(domain.Observation{Barcode: "00012345"})
	s.Wait()

	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	assert.Equal(t, 1, catalog.calls)
}

func TestCatalogSync_DisabledSkipsCatalog(t *testing.T) {
	catalog := newStubCatalog()
	s := NewCatalogSync(catalog, false, time.Second, zap.NewNop())

	s.Sync(domain.Observation{Barcode: "00012345"})
	s.Wait()

	assert.Empty(t, catalog.observed())
}
