package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
	"github.com/scancart/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions *usecase.SessionManager
	log      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(sessions *usecase.SessionManager, log *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		log:      log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scancart-backend",
		"version": "1.0.0",
	})
}

// StartSessionRequest opens a workflow for a shopping-list item
type StartSessionRequest struct {
	Item    domain.ShoppingItem `json:"item" binding:"required"`
	ActorID string              `json:"actorId" binding:"required"`
}

// ScanRequest feeds a barcode into the active scanning state
type ScanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// EventRequest carries a user-driven workflow transition
type EventRequest struct {
	Event          string  `json:"event" binding:"required"`
	Category       string  `json:"category,omitempty"`
	Quantity       float64 `json:"quantity,omitempty"`
	ExpirationDate string  `json:"expirationDate,omitempty"`
}

// StartSession handles POST /api/v1/sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.sessions.Start(req.Item, req.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, w.Snapshot())
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// Scan handles POST /api/v1/sessions/:id/scan
func (h *Handler) Scan(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := w.OnScan(c.Request.Context(), req.Barcode); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// Event handles POST /api/v1/sessions/:id/events
func (h *Handler) Event(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.applyEvent(c, w, &req)
	snap := w.Snapshot()

	if err != nil {
		// A persistence failure leaves the instance in COMPLETE with the
		// assembled result; the host retries with an explicit event
		if errors.Is(err, domain.ErrPersistenceFailed) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":    err.Error(),
				"snapshot": snap,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	// Dispose settled instances once the host has their terminal snapshot
	if snap.State.Terminal() {
		h.sessions.Remove(snap.ID)
	}

	c.JSON(http.StatusOK, snap)
}

// applyEvent dispatches a user-driven transition to the workflow
func (h *Handler) applyEvent(c *gin.Context, w *usecase.Workflow, req *EventRequest) error {
	ctx := c.Request.Context()

	switch req.Event {
	case "confirm_nutrition":
		return w.ConfirmNutrition()
	case "confirm_category":
		return w.ConfirmCategory(domain.Category(req.Category))
	case "confirm_quantity":
		return w.ConfirmQuantity(ctx, req.Quantity)
	case "pick_expiration":
		date, err := parseDate(req.ExpirationDate)
		if err != nil {
			return err
		}
		return w.PickExpiration(ctx, date)
	case "skip_expiration":
		return w.SkipExpiration(ctx)
	case "scan_substitute":
		return w.ScanSubstitute()
	case "accept_replacement":
		return w.AcceptReplacement()
	case "reject_replacement":
		return w.RejectReplacement()
	case "cancel", "skip_item":
		return w.Cancel()
	case "retry_commit":
		return w.RetryCommit(ctx)
	default:
		return domain.ErrInvalidRequest
	}
}

// session resolves the :id path parameter to a live workflow
func (h *Handler) session(c *gin.Context) (*usecase.Workflow, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return nil, false
	}

	w, err := h.sessions.Get(id)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return w, true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidEvent), errors.Is(err, domain.ErrScannerBusy):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPersistenceFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.log.Error("unhandled error", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseDate accepts plain dates and RFC3339 timestamps
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, domain.ErrInvalidRequest
	}
	if date, err := time.Parse("2006-01-02", value); err == nil {
		return date, nil
	}
	date, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.ErrInvalidRequest
	}
	return date, nil
}
