package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

// stubCache is a deterministic in-memory ProductCache
type stubCache struct {
	mu   sync.Mutex
	data map[string]*domain.ScannedProduct
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string]*domain.ScannedProduct)}
}

func (c *stubCache) Get(ctx context.Context, barcode string) (*domain.ScannedProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.data[barcode]; ok {
		return p, nil
	}
	return nil, domain.ErrCacheMiss
}

func (c *stubCache) Set(ctx context.Context, barcode string, product *domain.ScannedProduct) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[barcode] = product
	return nil
}

func (c *stubCache) Delete(ctx context.Context, barcode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, barcode)
	return nil
}

// stubCatalog serves scripted products and records observations
type stubCatalog struct {
	mu           sync.Mutex
	products     map[string]*domain.ScannedProduct
	fetchErr     map[string]error
	fetchCalls   int
	observations []domain.Observation
	blockFetch   chan struct{} // when set, FetchProduct waits on it
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		products: make(map[string]*domain.ScannedProduct),
		fetchErr: make(map[string]error),
	}
}

func (s *stubCatalog) FetchProduct(ctx context.Context, barcode string) (*domain.ScannedProduct, error) {
	s.mu.Lock()
	s.fetchCalls++
	block := s.blockFetch
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fetchErr[barcode]; ok {
		return nil, err
	}
	if p, ok := s.products[barcode]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (s *stubCatalog) SubmitObservation(ctx context.Context, obs *domain.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append(s.observations, *obs)
	return nil
}

func (s *stubCatalog) observed() []domain.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Observation(nil), s.observations...)
}

// recordingGateway captures committed results and can inject failures
type recordingGateway struct {
	mu      sync.Mutex
	commits []*domain.PurchaseResult
	err     error
}

func (g *recordingGateway) Commit(ctx context.Context, result *domain.PurchaseResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.commits = append(g.commits, result)
	return nil
}

func (g *recordingGateway) committed() []*domain.PurchaseResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*domain.PurchaseResult(nil), g.commits...)
}

func (g *recordingGateway) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

type workflowFixture struct {
	catalog *stubCatalog
	cache   *stubCache
	gateway *recordingGateway
	sync    *CatalogSync
	scanner *ScannerGate
	deps    WorkflowDeps
}

func newFixture() *workflowFixture {
	log := zap.NewNop()
	catalog := newStubCatalog()
	cache := newStubCache()
	gateway := &recordingGateway{}
	catalogSync := NewCatalogSync(catalog, true, time.Second, log)
	scanner := NewScannerGate()

	return &workflowFixture{
		catalog: catalog,
		cache:   cache,
		gateway: gateway,
		sync:    catalogSync,
		scanner: scanner,
		deps: WorkflowDeps{
			Lookup:  NewLookupService(cache, catalog, log),
			Sync:    catalogSync,
			Gateway: gateway,
			Scanner: scanner,
			Log:     log,
		},
	}
}

func milkItem() domain.ShoppingItem {
	return domain.ShoppingItem{
		ID:             uuid.New(),
		Name:           "Milk 2%",
		Brand:          "Hilltop Farms",
		Category:       domain.CategoryDairy,
		Quantity:       1,
		Unit:           "liter",
		PreferredStore: "Northgate Market",
		TargetPrice:    2.49,
	}
}

func milkProduct() *domain.ScannedProduct {
	return &domain.ScannedProduct{
		Barcode:      "00012345",
		Name:         "2% Reduced Fat Milk",
		Brand:        "Hilltop Farms",
		CategoryTags: []string{"en:dairies"},
		Nutrition: domain.NutritionFacts{
			ServingSize:   "240 ml",
			Calories:      122,
			Protein:       8,
			Carbohydrates: 12,
			TotalFat:      5,
		},
	}
}

func crackerProduct() *domain.ScannedProduct {
	return &domain.ScannedProduct{
		Barcode:      "00054321",
		Name:         "Wheat Crackers",
		Brand:        "Snackline",
		CategoryTags: []string{"en:salty-snacks"},
	}
}

func TestWorkflow_PerishableHappyPath(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00012345"] = milkProduct()
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)
	assert.Equal(t, StateScanning, w.Snapshot().State)

	require.NoError(t, w.OnScan(ctx, "00012345"))
	snap := w.Snapshot()
	assert.Equal(t, StateNutritionReview, snap.State)
	require.NotNil(t, snap.Product)
	assert.Equal(t, "2% Reduced Fat Milk", snap.Product.Name)

	require.NoError(t, w.ConfirmNutrition())
	snap = w.Snapshot()
	assert.Equal(t, StateCategoryConfirm, snap.State)
	assert.Equal(t, domain.CategoryDairy, snap.SuggestedCategory)

	require.NoError(t, w.ConfirmCategory(""))
	assert.Equal(t, StateQuantityAdjust, w.Snapshot().State)

	// Dairy is perishable, so the expiration picker must follow
	require.NoError(t, w.ConfirmQuantity(ctx, 1))
	assert.Equal(t, StateExpirationPicker, w.Snapshot().State)

	expiry := time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	require.NoError(t, w.PickExpiration(ctx, expiry))
	assert.Equal(t, StateComplete, w.Snapshot().State)

	commits := fx.gateway.committed()
	require.Len(t, commits, 1)
	result := commits[0]
	assert.Equal(t, 1.0, result.Quantity)
	assert.Equal(t, "liter", result.Unit)
	assert.Equal(t, domain.CategoryDairy, result.Category)
	require.NotNil(t, result.ExpirationDate)
	assert.Equal(t, expiry, *result.ExpirationDate)
	assert.False(t, result.IsReplacement)
	assert.Equal(t, "00012345", result.Product.Barcode)
}

func TestWorkflow_NonPerishableSkipsExpirationPicker(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00054321"] = crackerProduct()
	ctx := context.Background()

	item := milkItem()
	item.Name = "Crackers"
	item.Category = domain.CategorySnack
	w, err := StartWorkflow(item, "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	require.NoError(t, w.OnScan(ctx, "00054321"))
	require.NoError(t, w.ConfirmNutrition())
	require.NoError(t, w.ConfirmCategory(domain.CategorySnack))
	require.NoError(t, w.ConfirmQuantity(ctx, 2))

	snap := w.Snapshot()
	assert.Equal(t, StateComplete, snap.State)

	commits := fx.gateway.committed()
	require.Len(t, commits, 1)
	assert.Nil(t, commits[0].ExpirationDate)
}

func TestWorkflow_ReplacementAccepted(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00054321"] = crackerProduct()
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	// Original barcode is unknown to the catalog
	require.NoError(t, w.OnScan(ctx, "99999999"))
	assert.Equal(t, StateItemNotFound, w.Snapshot().State)

	require.NoError(t, w.ScanSubstitute())
	assert.Equal(t, StateScanReplacement, w.Snapshot().State)

	require.NoError(t, w.OnScan(ctx, "00054321"))
	snap := w.Snapshot()
	assert.Equal(t, StateCompareReplacement, snap.State)
	require.NotNil(t, snap.Candidate)
	assert.Equal(t, "00054321", snap.Candidate.Barcode)

	require.NoError(t, w.AcceptReplacement())
	snap = w.Snapshot()
	assert.Equal(t, StateNutritionReview, snap.State)
	assert.Nil(t, snap.Candidate)
	assert.True(t, snap.IsReplacement)
	assert.Equal(t, "00054321", snap.Product.Barcode)

	require.NoError(t, w.ConfirmNutrition())
	require.NoError(t, w.ConfirmCategory(domain.CategorySnack))
	require.NoError(t, w.ConfirmQuantity(ctx, 1))

	commits := fx.gateway.committed()
	require.Len(t, commits, 1)
	assert.True(t, commits[0].IsReplacement)
	assert.Equal(t, "00054321", commits[0].Product.Barcode)
}

func TestWorkflow_ReplacementRejected(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00054321"] = crackerProduct()
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	require.NoError(t, w.OnScan(ctx, "99999999"))
	require.NoError(t, w.ScanSubstitute())
	require.NoError(t, w.OnScan(ctx, "00054321"))
	require.NoError(t, w.RejectReplacement())

	snap := w.Snapshot()
	assert.Equal(t, StateItemNotFound, snap.State)
	assert.Nil(t, snap.Candidate)
	assert.False(t, snap.IsReplacement)
}

func TestWorkflow_ReplacementScanRetriesInPlace(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	require.NoError(t, w.OnScan(ctx, "99999999"))
	require.NoError(t, w.ScanSubstitute())

	// Unknown substitutes keep the replacement scanner open
	require.NoError(t, w.OnScan(ctx, "88888888"))
	assert.Equal(t, StateScanReplacement, w.Snapshot().State)
}

func TestWorkflow_TransientFailureRoutesToNotFound(t *testing.T) {
	fx := newFixture()
	fx.catalog.fetchErr["00012345"] = domain.ErrCatalogUnavailable
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	require.NoError(t, w.OnScan(ctx, "00012345"))
	snap := w.Snapshot()
	assert.Equal(t, StateItemNotFound, snap.State)
	assert.True(t, snap.LastLookupFailed)
}

func TestWorkflow_CancelInvokesCallbackOnce(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00012345"] = milkProduct()
	ctx := context.Background()

	cancelled := 0
	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, func() { cancelled++ })
	require.NoError(t, err)

	require.NoError(t, w.OnScan(ctx, "00012345"))
	require.NoError(t, w.ConfirmNutrition())
	assert.Equal(t, StateCategoryConfirm, w.Snapshot().State)

	require.NoError(t, w.Cancel())
	assert.Equal(t, StateCancelled, w.Snapshot().State)
	assert.Equal(t, 1, cancelled)
	assert.Empty(t, fx.gateway.committed())

	// Terminal states accept no further events
	assert.ErrorIs(t, w.Cancel(), domain.ErrInvalidEvent)
	assert.Equal(t, 1, cancelled)
}

func TestWorkflow_CancelDiscardsInFlightLookup(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00012345"] = milkProduct()
	block := make(chan struct{})
	fx.catalog.blockFetch = block
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.OnScan(ctx, "00012345") }()

	// Give the scan a moment to enter the lookup before cancelling
	require.Eventually(t, func() bool {
		fx.catalog.mu.Lock()
		defer fx.catalog.mu.Unlock()
		return fx.catalog.fetchCalls == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Cancel())
	close(block)
	require.NoError(t, <-done)

	snap := w.Snapshot()
	assert.Equal(t, StateCancelled, snap.State)
	assert.Nil(t, snap.Product)
	assert.Empty(t, fx.gateway.committed())
}

func TestWorkflow_ScanIgnoredWhileLookupPending(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00012345"] = milkProduct()
	block := make(chan struct{})
	fx.catalog.blockFetch = block
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.OnScan(ctx, "00012345") }()

	require.Eventually(t, func() bool {
		fx.catalog.mu.Lock()
		defer fx.catalog.mu.Unlock()
		return fx.catalog.fetchCalls == 1
	}, time.Second, 5*time.Millisecond)

	// Second scan while the first lookup is pending is a silent no-op
	require.NoError(t, w.OnScan(ctx, "00099999"))

	close(block)
	require.NoError(t, <-done)

	fx.catalog.mu.Lock()
	calls := fx.catalog.fetchCalls
	fx.catalog.mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateNutritionReview, w.Snapshot().State)
}

func TestWorkflow_PersistenceFailureStaysComplete(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00054321"] = crackerProduct()
	fx.gateway.setErr(errors.New("record store down"))
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	require.NoError(t, w.OnScan(ctx, "00054321"))
	require.NoError(t, w.ConfirmNutrition())
	require.NoError(t, w.ConfirmCategory(domain.CategorySnack))

	err = w.ConfirmQuantity(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)

	// The assembled result survives the failure; retry is host-driven
	snap := w.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	require.NotNil(t, snap.Result)

	fx.gateway.setErr(nil)
	require.NoError(t, w.RetryCommit(ctx))
	require.Len(t, fx.gateway.committed(), 1)

	// A second retry after success is a no-op
	require.NoError(t, w.RetryCommit(ctx))
	assert.Len(t, fx.gateway.committed(), 1)
}

func TestWorkflow_EventsRejectedOutsideTheirState(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, w.ConfirmNutrition(), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.ConfirmCategory(domain.CategoryDairy), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.ConfirmQuantity(ctx, 1), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.PickExpiration(ctx, time.Now()), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.SkipExpiration(ctx), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.ScanSubstitute(), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.AcceptReplacement(), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.RejectReplacement(), domain.ErrInvalidEvent)
	assert.ErrorIs(t, w.RetryCommit(ctx), domain.ErrInvalidEvent)
}

func TestWorkflow_ScannerIsExclusive(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00012345"] = milkProduct()
	ctx := context.Background()

	w1, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)

	// w1 holds the scanner while in SCANNING
	_, err = StartWorkflow(milkItem(), "shopper-2", fx.deps, nil)
	assert.ErrorIs(t, err, domain.ErrScannerBusy)

	// Leaving the scanning state releases it
	require.NoError(t, w1.OnScan(ctx, "00012345"))
	w2, err := StartWorkflow(milkItem(), "shopper-2", fx.deps, nil)
	require.NoError(t, err)
	require.NoError(t, w2.Cancel())
}

func TestWorkflow_CatalogSyncObservations(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00054321"] = crackerProduct()
	ctx := context.Background()

	item := milkItem()
	w, err := StartWorkflow(item, "shopper-7", fx.deps, nil)
	require.NoError(t, err)

	require.NoError(t, w.OnScan(ctx, "99999999"))
	require.NoError(t, w.ScanSubstitute())
	require.NoError(t, w.OnScan(ctx, "00054321"))
	fx.sync.Wait()

	obs := fx.catalog.observed()
	require.Len(t, obs, 1)
	assert.Equal(t, "00054321", obs[0].Barcode)
	assert.Equal(t, "shopper-7", obs[0].ActorID)
	assert.Equal(t, item.PreferredStore, obs[0].Store)
	assert.Equal(t, item.TargetPrice, obs[0].TargetPrice)
	assert.Equal(t, domain.CategoryDairy, obs[0].DeclaredCategory)
	assert.Equal(t, domain.PurposeReplacement, obs[0].Purpose)
}

func TestWorkflow_ScaledNutrition(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["00012345"] = milkProduct()
	ctx := context.Background()

	w, err := StartWorkflow(milkItem(), "shopper-1", fx.deps, nil)
	require.NoError(t, err)
	require.NoError(t, w.OnScan(ctx, "00012345"))
	require.NoError(t, w.ConfirmNutrition())
	require.NoError(t, w.ConfirmCategory(domain.CategoryDairy))
	require.NoError(t, w.ConfirmQuantity(ctx, 2))

	scaled := w.Snapshot().ScaledNutrition()
	assert.Equal(t, 244.0, scaled.Calories)
	assert.Equal(t, 16.0, scaled.Protein)
}
