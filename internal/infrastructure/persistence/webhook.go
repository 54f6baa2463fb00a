package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scancart/backend/internal/domain"
)

// WebhookGateway delivers completed purchase results to the host system's
// record store over HTTP. The workflow treats persistence as an external
// collaborator; this adapter is the default wiring for it.
type WebhookGateway struct {
	httpClient *http.Client
	endpoint   string
	log        *zap.Logger
}

// NewWebhookGateway creates a gateway posting results to endpoint
func NewWebhookGateway(endpoint string, log *zap.Logger) *WebhookGateway {
	return &WebhookGateway{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   endpoint,
		log:        log,
	}
}

// Commit posts the purchase result as JSON. Any non-2xx response is a
// persistence failure for the workflow to surface.
func (g *WebhookGateway) Commit(ctx context.Context, result *domain.PurchaseResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode purchase result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create persistence request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("persistence request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("persistence endpoint returned status %d", resp.StatusCode)
	}

	g.log.Debug("purchase result persisted",
		zap.Stringer("itemId", result.ItemID),
		zap.String("category", result.Category.String()))
	return nil
}

// LogGateway records results to the log only. Used when no persistence
// endpoint is configured, e.g. in local development.
type LogGateway struct {
	log *zap.Logger
}

// NewLogGateway creates a log-only gateway
func NewLogGateway(log *zap.Logger) *LogGateway {
	return &LogGateway{log: log}
}

// Commit logs the result and reports success
func (g *LogGateway) Commit(ctx context.Context, result *domain.PurchaseResult) error {
	g.log.Info("purchase result (no persistence endpoint configured)",
		zap.Stringer("itemId", result.ItemID),
		zap.String("product", result.Product.Name),
		zap.Float64("quantity", result.Quantity),
		zap.String("unit", result.Unit),
		zap.String("category", result.Category.String()),
		zap.Bool("replacement", result.IsReplacement))
	return nil
}
