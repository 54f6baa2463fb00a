package domain

import "github.com/google/uuid"

// ShoppingItem is the pre-existing list entry a workflow instance fulfils.
// It is owned by the shopping list and read-only inside the workflow.
type ShoppingItem struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Brand          string    `json:"brand,omitempty"`
	Category       Category  `json:"category,omitempty"`
	Quantity       float64   `json:"quantity"`
	Unit           string    `json:"unit"`
	PreferredStore string    `json:"preferredStore,omitempty"`
	TargetPrice    float64   `json:"targetPrice,omitempty"`
}
