package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

// LookupService resolves barcodes against a local cache backed by the
// remote shared catalog.
type LookupService struct {
	cache   domain.ProductCache
	catalog domain.CatalogClient
	log     *zap.Logger
}

// NewLookupService creates a lookup service with its dependencies
func NewLookupService(cache domain.ProductCache, catalog domain.CatalogClient, log *zap.Logger) *LookupService {
	return &LookupService{
		cache:   cache,
		catalog: catalog,
		log:     log,
	}
}

// Lookup resolves a barcode to a scanned product.
// Flow: check cache -> query catalog -> cache the hit -> return.
// A missing barcode returns domain.ErrProductNotFound; a failure to reach
// the catalog returns domain.ErrCatalogUnavailable. Not-found responses are
// never cached, since the shared catalog grows over time.
func (s *LookupService) Lookup(ctx context.Context, barcode string) (*domain.ScannedProduct, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}

	if product, err := s.cache.Get(ctx, barcode); err == nil && product != nil {
		return product, nil
	}

	product, err := s.catalog.FetchProduct(ctx, barcode)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	if err := s.cache.Set(ctx, barcode, product); err != nil {
		// A write-back failure only costs a future catalog round trip
		s.log.Warn("product cache write failed",
			zap.String("barcode", barcode),
			zap.Error(err))
	}

	return product, nil
}
