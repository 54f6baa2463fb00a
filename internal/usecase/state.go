package usecase

// State identifies where a workflow instance is in the purchase-capture
// flow. Exactly one state is live per instance; replacing it is the only
// way the instance changes.
type State string

const (
	StateScanning           State = "SCANNING"
	StateNutritionReview    State = "NUTRITION_REVIEW"
	StateCategoryConfirm    State = "CATEGORY_CONFIRM"
	StateItemNotFound       State = "ITEM_NOT_FOUND"
	StateScanReplacement    State = "SCAN_REPLACEMENT"
	StateCompareReplacement State = "COMPARE_REPLACEMENT"
	StateQuantityAdjust     State = "QUANTITY_ADJUST"
	StateExpirationPicker   State = "EXPIRATION_PICKER"
	StateComplete           State = "COMPLETE"
	StateCancelled          State = "CANCELLED"
)

var terminalStates = map[State]bool{
	StateComplete:  true,
	StateCancelled: true,
}

// scanningStates hold the scanner; every other state has released it
var scanningStates = map[State]bool{
	StateScanning:        true,
	StateScanReplacement: true,
}

// Terminal returns true when no further transitions are allowed
func (s State) Terminal() bool {
	return terminalStates[s]
}

// Scanning returns true when the state holds the scanning interface open
func (s State) Scanning() bool {
	return scanningStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
