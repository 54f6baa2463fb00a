package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

// CatalogSync contributes observed barcode/product associations back to the
// shared catalog. Every call is fire-and-forget: the submission runs in a
// detached goroutine, failures are logged and dropped, and nothing about the
// primary workflow ever depends on the outcome.
type CatalogSync struct {
	catalog domain.CatalogClient
	log     *zap.Logger
	timeout time.Duration
	enabled bool
	wg      sync.WaitGroup
}

// NewCatalogSync creates a catalog sync with the given submission timeout.
// A disabled sync swallows every observation without contacting the catalog.
func NewCatalogSync(catalog domain.CatalogClient, enabled bool, timeout time.Duration, log *zap.Logger) *CatalogSync {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CatalogSync{
		catalog: catalog,
		log:     log,
		timeout: timeout,
		enabled: enabled,
	}
}

// Sync records the observation without blocking the caller
func (s *CatalogSync) Sync(obs domain.Observation) {
	if !s.enabled {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.catalog.SubmitObservation(ctx, &obs); err != nil {
			s.log.Warn("catalog sync failed",
				zap.String("barcode", obs.Barcode),
				zap.String("purpose", string(obs.Purpose)),
				zap.Error(err))
			return
		}

		s.log.Debug("catalog sync recorded",
			zap.String("barcode", obs.Barcode),
			zap.String("store", obs.Store))
	}()
}

// Wait blocks until all in-flight submissions settle. Used on shutdown and
// in tests.
func (s *CatalogSync) Wait() {
	s.wg.Wait()
}
