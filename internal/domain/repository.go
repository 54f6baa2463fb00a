package domain

import "context"

// ProductCache defines the interface for the barcode-keyed product cache.
// Barcodes identify an immutable product, so entries never expire; eviction
// is capacity-based and left to the implementation.
type ProductCache interface {
	Get(ctx context.Context, barcode string) (*ScannedProduct, error)
	Set(ctx context.Context, barcode string, product *ScannedProduct) error
	Delete(ctx context.Context, barcode string) error
}

// CatalogClient defines the interface for the remote shared catalog
type CatalogClient interface {
	// FetchProduct resolves a barcode. Returns ErrProductNotFound when the
	// catalog does not know the barcode and ErrCatalogUnavailable on
	// network or protocol failure.
	FetchProduct(ctx context.Context, barcode string) (*ScannedProduct, error)

	// SubmitObservation records an observed barcode/product association
	// plus purchase context in the shared catalog
	SubmitObservation(ctx context.Context, obs *Observation) error
}

// ObservationPurpose records why a product was scanned
type ObservationPurpose string

const (
	PurposePlanned     ObservationPurpose = "planned"
	PurposeReplacement ObservationPurpose = "replacement"
)

// Observation is the purchase context sent to the shared catalog.
// It is built entirely from explicit workflow inputs.
type Observation struct {
	Barcode          string
	Product          ScannedProduct
	ActorID          string
	Store            string
	TargetPrice      float64
	DeclaredCategory Category
	Purpose          ObservationPurpose
}

// PersistenceGateway commits a finished purchase result to durable storage.
// It is invoked when a workflow instance completes; retries after a failure
// are driven by the host, never internally.
type PersistenceGateway interface {
	Commit(ctx context.Context, result *PurchaseResult) error
}
