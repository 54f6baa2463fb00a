package usecase

import (
	"sync"

	"github.com/scancart/backend/internal/domain"
)

// ScannerGate models the scanning hardware as an exclusive resource: only
// one workflow instance may hold it open at a time. Acquisition never
// blocks; a busy gate is reported to the caller instead.
type ScannerGate struct {
	mu   sync.Mutex
	held bool
}

// NewScannerGate creates a released gate
func NewScannerGate() *ScannerGate {
	return &ScannerGate{}
}

// Acquire claims the scanner. Returns domain.ErrScannerBusy when another
// holder has it.
func (g *ScannerGate) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held {
		return domain.ErrScannerBusy
	}
	g.held = true
	return nil
}

// Release returns the scanner. Releasing an unheld gate is a no-op.
func (g *ScannerGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}

// Held reports whether the scanner is currently claimed
func (g *ScannerGate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}
