package domain

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseResult is the single terminal output of a completed workflow
// instance. It is immutable once constructed.
type PurchaseResult struct {
	ItemID         uuid.UUID      `json:"itemId"`
	Product        ScannedProduct `json:"product"`
	Quantity       float64        `json:"quantity"`
	Unit           string         `json:"unit"`
	Category       Category       `json:"category"`
	ExpirationDate *time.Time     `json:"expirationDate,omitempty"`
	IsReplacement  bool           `json:"isReplacement"`
}
