package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

func TestLookup_CacheHitSkipsCatalog(t *testing.T) {
	cache := newStubCache()
	catalog := newStubCatalog()
	service := NewLookupService(cache, catalog, zap.NewNop())

	cached := &domain.ScannedProduct{Barcode: "00012345", Name: "Cached Milk"}
	require.NoError(t, cache.Set(context.Background(), "00012345", cached))

	product, err := service.Lookup(context.Background(), "00012345")
	require.NoError(t, err)
	assert.Equal(t, "Cached Milk", product.Name)
	assert.Equal(t, 0, catalog.fetchCalls)
}

func TestLookup_MissFetchesAndCaches(t *testing.T) {
	cache := newStubCache()
	catalog := newStubCatalog()
	catalog.products["00012345"] = &domain.ScannedProduct{Barcode: "00012345", Name: "Fresh Milk"}
	service := NewLookupService(cache, catalog, zap.NewNop())

	product, err := service.Lookup(context.Background(), "00012345")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Milk", product.Name)

	// Second lookup is served from cache
	_, err = service.Lookup(context.Background(), "00012345")
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.fetchCalls)
}

func TestLookup_NotFoundIsNotCached(t *testing.T) {
	cache := newStubCache()
	catalog := newStubCatalog()
	service := NewLookupService(cache, catalog, zap.NewNop())

	_, err := service.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	// The catalog grows; a later scan of the same barcode asks again
	_, err = service.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 2, catalog.fetchCalls)
}

func TestLookup_TransientFailure(t *testing.T) {
	cache := newStubCache()
	catalog := newStubCatalog()
	catalog.fetchErr["00012345"] = domain.ErrCatalogUnavailable
	service := NewLookupService(cache, catalog, zap.NewNop())

	_, err := service.Lookup(context.Background(), "00012345")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}

func TestLookup_UnknownErrorMapsToUnavailable(t *testing.T) {
	cache := newStubCache()
	catalog := newStubCatalog()
	catalog.fetchErr["00012345"] = errors.New("connection reset")
	service := NewLookupService(cache, catalog, zap.NewNop())

	_, err := service.Lookup(context.Background(), "00012345")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestLookup_EmptyBarcode(t *testing.T) {
	service := NewLookupService(newStubCache(), newStubCatalog(), zap.NewNop())

	_, err := service.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
