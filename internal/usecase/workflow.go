package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

// Workflow drives one run of the guided purchase-capture flow for a single
// shopping-list item. It reacts to discrete events (scan results, user
// confirmations, cancellation), performs one unit of work per event, and
// emits exactly one PurchaseResult if and only if it reaches COMPLETE.
//
// All event methods are safe for concurrent use; internally events are
// applied one at a time under the instance lock.
type Workflow struct {
	id      uuid.UUID
	item    domain.ShoppingItem
	actorID string

	lookup  *LookupService
	sync    *CatalogSync
	gateway domain.PersistenceGateway
	scanner *ScannerGate
	log     *zap.Logger

	onCancel func()

	mu    sync.Mutex
	state State
	// epoch invalidates in-flight lookups: any result that settles after
	// the epoch moved on is dropped instead of applied
	epoch         uint64
	lookupPending bool

	product       *domain.ScannedProduct
	candidate     *domain.ScannedProduct
	isReplacement bool
	category      domain.Category
	quantity      float64
	expiration    *time.Time
	lastTransient bool

	result      *domain.PurchaseResult
	committed   bool
	cancelFired bool
}

// WorkflowDeps bundles the collaborators every workflow instance needs
type WorkflowDeps struct {
	Lookup  *LookupService
	Sync    *CatalogSync
	Gateway domain.PersistenceGateway
	Scanner *ScannerGate
	Log     *zap.Logger
}

// StartWorkflow opens a workflow instance for the given list item. The
// actor identifier is captured explicitly at construction so catalog
// observations are a pure function of workflow inputs. The scanner is
// claimed immediately; a busy scanner fails the start.
func StartWorkflow(item domain.ShoppingItem, actorID string, deps WorkflowDeps, onCancel func()) (*Workflow, error) {
	if item.Name == "" {
		return nil, domain.ErrInvalidRequest
	}
	if err := deps.Scanner.Acquire(); err != nil {
		return nil, err
	}

	w := &Workflow{
		id:       uuid.New(),
		item:     item,
		actorID:  actorID,
		lookup:   deps.Lookup,
		sync:     deps.Sync,
		gateway:  deps.Gateway,
		scanner:  deps.Scanner,
		onCancel: onCancel,
		state:    StateScanning,
	}
	w.log = deps.Log.With(
		zap.Stringer("workflowId", w.id),
		zap.Stringer("itemId", item.ID))

	w.log.Info("workflow started", zap.String("item", item.Name))
	return w, nil
}

// ID returns the instance identifier
func (w *Workflow) ID() uuid.UUID {
	return w.id
}

// OnScan feeds a scan event into the active scanning state. Scans arriving
// outside SCANNING/SCAN_REPLACEMENT are rejected; a scan while a lookup is
// already pending is silently ignored, so no two lookups are ever in flight
// for the same instance.
func (w *Workflow) OnScan(ctx context.Context, barcode string) error {
	w.mu.Lock()
	if !w.state.Scanning() {
		w.mu.Unlock()
		return fmt.Errorf("%w: scan in %s", domain.ErrInvalidEvent, w.state)
	}
	if w.lookupPending {
		w.mu.Unlock()
		return nil
	}
	w.lookupPending = true
	epoch := w.epoch
	origin := w.state
	w.mu.Unlock()

	product, err := w.lookup.Lookup(ctx, barcode)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lookupPending = false

	// The instance was cancelled (or otherwise moved) while the lookup was
	// in flight: the result is abandoned, not applied.
	if w.epoch != epoch || w.state != origin {
		return nil
	}

	switch {
	case err == nil:
		w.applyLookupHit(origin, barcode, product)
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCatalogUnavailable):
		// Transient catalog failures currently route into the same
		// not-found branch as a genuinely unknown barcode; the flag is
		// kept so the host can tell the two apart.
		w.lastTransient = errors.Is(err, domain.ErrCatalogUnavailable)
		w.applyLookupMiss(origin, barcode)
	default:
		return err
	}
	return nil
}

// applyLookupHit advances past a successful lookup and fires the
// best-effort catalog contribution. Caller holds the lock.
func (w *Workflow) applyLookupHit(origin State, barcode string, product *domain.ScannedProduct) {
	purpose := domain.PurposePlanned
	if origin == StateScanReplacement {
		purpose = domain.PurposeReplacement
	}
	w.sync.Sync(domain.Observation{
		Barcode:          barcode,
		Product:          *product,
		ActorID:          w.actorID,
		Store:            w.item.PreferredStore,
		TargetPrice:      w.item.TargetPrice,
		DeclaredCategory: w.item.Category,
		Purpose:          purpose,
	})

	w.lastTransient = false
	if origin == StateScanning {
		w.product = product
		w.transition(StateNutritionReview)
		return
	}
	w.candidate = product
	w.transition(StateCompareReplacement)
}

// applyLookupMiss handles a not-found (or unavailable) lookup outcome.
// Caller holds the lock.
func (w *Workflow) applyLookupMiss(origin State, barcode string) {
	w.log.Info("barcode not resolved",
		zap.String("barcode", barcode),
		zap.Bool("transient", w.lastTransient))

	if origin == StateScanning {
		w.transition(StateItemNotFound)
		return
	}
	// Replacement scans retry in place until one resolves
}

// ConfirmNutrition acknowledges the nutrition review step
func (w *Workflow) ConfirmNutrition() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateNutritionReview {
		return fmt.Errorf("%w: confirm nutrition in %s", domain.ErrInvalidEvent, w.state)
	}
	w.transition(StateCategoryConfirm)
	return nil
}

// ConfirmCategory fixes the category for the purchase. An empty category
// accepts the classifier's suggestion.
func (w *Workflow) ConfirmCategory(category domain.Category) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateCategoryConfirm {
		return fmt.Errorf("%w: confirm category in %s", domain.ErrInvalidEvent, w.state)
	}
	if category == "" {
		category = Classify(w.product)
	}
	if !category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, category)
	}
	w.category = category
	w.transition(StateQuantityAdjust)
	return nil
}

// ConfirmQuantity fixes the purchased quantity, in the list item's unit.
// Perishable categories continue to the expiration picker; everything else
// completes the workflow.
func (w *Workflow) ConfirmQuantity(ctx context.Context, quantity float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateQuantityAdjust {
		return fmt.Errorf("%w: confirm quantity in %s", domain.ErrInvalidEvent, w.state)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
	}
	w.quantity = quantity

	if w.category.Perishable() {
		w.transition(StateExpirationPicker)
		return nil
	}
	return w.complete(ctx)
}

// PickExpiration records an expiration date and completes the workflow
func (w *Workflow) PickExpiration(ctx context.Context, date time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateExpirationPicker {
		return fmt.Errorf("%w: pick expiration in %s", domain.ErrInvalidEvent, w.state)
	}
	w.expiration = &date
	return w.complete(ctx)
}

// SkipExpiration completes the workflow without an expiration date
func (w *Workflow) SkipExpiration(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateExpirationPicker {
		return fmt.Errorf("%w: skip expiration in %s", domain.ErrInvalidEvent, w.state)
	}
	w.expiration = nil
	return w.complete(ctx)
}

// ScanSubstitute moves from the not-found state into scanning a
// replacement. The scanner must be re-acquired; another instance may have
// taken it in the meantime.
func (w *Workflow) ScanSubstitute() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateItemNotFound {
		return fmt.Errorf("%w: scan substitute in %s", domain.ErrInvalidEvent, w.state)
	}
	if err := w.scanner.Acquire(); err != nil {
		return err
	}
	w.transition(StateScanReplacement)
	return nil
}

// AcceptReplacement swaps the replacement candidate in as the active
// product and restarts the review pass with it
func (w *Workflow) AcceptReplacement() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateCompareReplacement {
		return fmt.Errorf("%w: accept replacement in %s", domain.ErrInvalidEvent, w.state)
	}
	w.product = w.candidate
	w.candidate = nil
	w.isReplacement = true
	w.transition(StateNutritionReview)
	return nil
}

// RejectReplacement discards the candidate and returns to the not-found
// state, where the user may scan another substitute or skip the item
func (w *Workflow) RejectReplacement() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateCompareReplacement {
		return fmt.Errorf("%w: reject replacement in %s", domain.ErrInvalidEvent, w.state)
	}
	w.candidate = nil
	w.transition(StateItemNotFound)
	return nil
}

// Cancel abandons the instance from any non-terminal state. An in-flight
// lookup's result is discarded when it settles. No partial result is ever
// emitted from a cancelled instance.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Terminal() {
		return fmt.Errorf("%w: cancel in %s", domain.ErrInvalidEvent, w.state)
	}
	w.epoch++
	w.candidate = nil
	w.transition(StateCancelled)

	if w.onCancel != nil && !w.cancelFired {
		w.cancelFired = true
		cb := w.onCancel
		w.mu.Unlock()
		cb()
		w.mu.Lock()
	}
	w.log.Info("workflow cancelled")
	return nil
}

// RetryCommit re-invokes the persistence gateway after a reported failure.
// Valid only in COMPLETE with an uncommitted result; retry is always an
// explicit host action, never an internal state.
func (w *Workflow) RetryCommit(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateComplete || w.result == nil {
		return fmt.Errorf("%w: retry commit in %s", domain.ErrInvalidEvent, w.state)
	}
	if w.committed {
		return nil
	}
	return w.commit(ctx)
}

// complete constructs the single PurchaseResult, enters COMPLETE and
// commits. A persistence failure is surfaced but the instance stays in
// COMPLETE with the assembled result intact. Caller holds the lock.
func (w *Workflow) complete(ctx context.Context) error {
	w.result = &domain.PurchaseResult{
		ItemID:         w.item.ID,
		Product:        *w.product,
		Quantity:       w.quantity,
		Unit:           w.item.Unit,
		Category:       w.category,
		ExpirationDate: w.expiration,
		IsReplacement:  w.isReplacement,
	}
	w.transition(StateComplete)
	w.log.Info("workflow complete",
		zap.String("category", w.category.String()),
		zap.Bool("replacement", w.isReplacement))
	return w.commit(ctx)
}

// commit invokes the persistence gateway for the assembled result.
// Caller holds the lock.
func (w *Workflow) commit(ctx context.Context) error {
	result := w.result
	w.mu.Unlock()
	err := w.gateway.Commit(ctx, result)
	w.mu.Lock()

	if err != nil {
		w.log.Error("purchase result commit failed", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	w.committed = true
	return nil
}

// transition replaces the live state, releasing the scanner whenever the
// instance leaves a scanning state. Caller holds the lock.
func (w *Workflow) transition(next State) {
	if w.state.Scanning() && !next.Scanning() {
		w.scanner.Release()
	}
	w.state = next
	w.log.Debug("state transition", zap.Stringer("state", next))
}

// Snapshot is a read-only view of the instance for the host UI
type Snapshot struct {
	ID                uuid.UUID              `json:"id"`
	State             State                  `json:"state"`
	Item              domain.ShoppingItem    `json:"item"`
	Product           *domain.ScannedProduct `json:"product,omitempty"`
	Candidate         *domain.ScannedProduct `json:"candidate,omitempty"`
	SuggestedCategory domain.Category        `json:"suggestedCategory,omitempty"`
	Category          domain.Category        `json:"category,omitempty"`
	Quantity          float64                `json:"quantity,omitempty"`
	IsReplacement     bool                   `json:"isReplacement"`
	LastLookupFailed  bool                   `json:"lastLookupTransient,omitempty"`
	Result            *domain.PurchaseResult `json:"result,omitempty"`
}

// Snapshot returns the current view of the instance
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		ID:               w.id,
		State:            w.state,
		Item:             w.item,
		Product:          w.product,
		Candidate:        w.candidate,
		Category:         w.category,
		Quantity:         w.quantity,
		IsReplacement:    w.isReplacement,
		LastLookupFailed: w.lastTransient,
		Result:           w.result,
	}
	if w.product != nil && w.category == "" {
		snap.SuggestedCategory = Classify(w.product)
	}
	return snap
}

// ScaledNutrition derives nutrition facts for the confirmed quantity from
// the active product. Computed on demand; nothing derived is stored on the
// instance.
func (s Snapshot) ScaledNutrition() domain.NutritionFacts {
	if s.Product == nil {
		return domain.NutritionFacts{}
	}
	factor := s.Quantity
	if factor <= 0 {
		factor = 1
	}
	return s.Product.Nutrition.Scale(factor)
}
