package usecase

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

// SessionManager tracks live workflow instances for the host UI. Instances
// for different list items are fully independent; the only shared state
// between them is the product cache inside the lookup service and the
// scanner gate.
type SessionManager struct {
	deps WorkflowDeps

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Workflow
}

// NewSessionManager creates a session manager around shared collaborators
func NewSessionManager(deps WorkflowDeps) *SessionManager {
	return &SessionManager{
		deps:     deps,
		sessions: make(map[uuid.UUID]*Workflow),
	}
}

// Start opens a workflow for a shopping item and registers it
func (m *SessionManager) Start(item domain.ShoppingItem, actorID string) (*Workflow, error) {
	w, err := StartWorkflow(item, actorID, m.deps, func() {
		m.deps.Log.Info("workflow abandoned",
			zap.Stringer("itemId", item.ID),
			zap.String("actor", actorID))
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[w.ID()] = w
	m.mu.Unlock()
	return w, nil
}

// Get returns the live workflow for an ID
func (m *SessionManager) Get(id uuid.UUID) (*Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return w, nil
}

// Remove drops a finished workflow from the registry. The instance itself
// is disposed once the host has consumed its terminal snapshot.
func (m *SessionManager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
