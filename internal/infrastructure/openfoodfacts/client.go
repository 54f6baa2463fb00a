package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scancart/backend/internal/domain"
)

// Client talks to an Open Food Facts compatible catalog. Reads resolve
// barcodes; writes contribute observed products back to the shared catalog.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	username    string
	password    string
	rateLimiter *rate.Limiter
	log         *zap.Logger
}

// ClientConfig holds catalog client settings
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Username          string
	Password          string
	RequestsPerMinute int
}

// NewClient creates a rate-limited catalog client
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 100 // Open Food Facts asks for at most 100 product reads/min
	}
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		username:    cfg.Username,
		password:    cfg.Password,
		rateLimiter: limiter,
		log:         log,
	}
}

// exponentialBackoff returns the sleep before retrying the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}

// FetchProduct resolves a barcode against the catalog.
// Unknown barcodes come back as either HTTP 404 or a 200 with status 0,
// depending on the deployment; both map to domain.ErrProductNotFound.
// Transport failures and 5xx responses are retried up to 3 times and then
// reported as domain.ErrCatalogUnavailable.
func (c *Client) FetchProduct(ctx context.Context, barcode string) (*domain.ScannedProduct, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s", c.baseURL, url.PathEscape(barcode))

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			c.log.Warn("catalog request failed",
				zap.String("barcode", barcode),
				zap.Int("attempt", attempt),
				zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
			sleepWithContext(ctx, exponentialBackoff(attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}
		if resp.StatusCode != http.StatusOK {
			c.log.Warn("catalog error response",
				zap.String("barcode", barcode),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
			sleepWithContext(ctx, exponentialBackoff(attempt))
			continue
		}

		var productResp productResponse
		if err := json.Unmarshal(body, &productResp); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", domain.ErrCatalogUnavailable, err)
		}
		if productResp.Status == 0 {
			return nil, domain.ErrProductNotFound
		}

		return mapToScannedProduct(barcode, &productResp.Product), nil
	}

	return nil, lastErr
}

// SubmitObservation contributes an observed barcode/product association.
// Open Food Facts exposes writes through a form-encoded CGI endpoint.
func (c *Client) SubmitObservation(ctx context.Context, obs *domain.Observation) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	form := url.Values{}
	form.Set("code", obs.Barcode)
	form.Set("user_id", c.username)
	form.Set("password", c.password)
	form.Set("product_name", obs.Product.Name)
	form.Set("brands", obs.Product.Brand)
	if obs.DeclaredCategory != "" {
		form.Set("categories", obs.DeclaredCategory.String())
	}
	if obs.Store != "" {
		form.Set("stores", obs.Store)
	}
	form.Set("comment", fmt.Sprintf("observed by %s (%s)", obs.ActorID, obs.Purpose))

	reqURL := fmt.Sprintf("%s/cgi/product_jqm2.pl", c.baseURL)
	resp, err := c.doRequest(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d, body: %s", domain.ErrCatalogUnavailable, resp.StatusCode, string(body))
	}
	return nil
}

// doRequest executes an HTTP request with catalog headers
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return c.httpClient.Do(req)
}

// sleepWithContext sleeps for d unless the context ends first
func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
