// Package enrich provides the client for the external AI content-enrichment
// service used to backfill missing or low-quality glossary sections.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultTimeout = 20 * time.Second

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Probe with one request.
)

// ErrCircuitOpen is returned when the circuit breaker is open and requests
// are being rejected without calling the enrichment service.
var ErrCircuitOpen = errors.New("enrichment circuit breaker is open")

// Request identifies the content to enrich.
type Request struct {
	TermName        string `json:"term_name"`
	Category        string `json:"category,omitempty"`
	SectionName     string `json:"section_name"`
	ExistingContent string `json:"existing_content,omitempty"`
}

// Client calls the enrichment HTTP API. A circuit breaker fails fast when
// the service is down so a 10,000-row import is never stalled by it, and an
// in-memory cache de-duplicates repeat (term, section) requests within a
// process lifetime.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu              sync.Mutex
	cbState         int
	cbFailures      int
	cbLastFailureAt time.Time
	cache           map[string]string
}

type enrichPayload struct {
	Text string `json:"text"`
}

// New creates a Client for the given enrichment endpoint. timeout bounds
// every call; zero means the default.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		cbState: cbClosed,
		cache:   make(map[string]string),
	}
}

// Enrich requests replacement text for one section of one term. Results are
// cached by (term, section); the existing content does not participate in
// the cache key because retries within a run carry the same content.
func (c *Client) Enrich(ctx context.Context, req Request) (string, error) {
	key := req.TermName + "\x00" + req.SectionName

	c.mu.Lock()
	if text, ok := c.cache[key]; ok {
		c.mu.Unlock()

		return text, nil
	}
	c.mu.Unlock()

	if err := c.cbAllow(); err != nil {
		return "", err
	}

	text, err := c.doEnrich(ctx, req)
	if err != nil {
		c.cbRecordFailure()

		return "", err
	}

	c.cbRecordSuccess()

	c.mu.Lock()
	c.cache[key] = text
	c.mu.Unlock()

	return text, nil
}

func (c *Client) doEnrich(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling enrichment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/enrich", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating enrichment request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling enrichment API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.

		return "", fmt.Errorf("enrichment API returned status %d", resp.StatusCode)
	}

	var result enrichPayload

	limited := io.LimitReader(resp.Body, 4<<20) // 4 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding enrichment response: %w", err)
	}

	if result.Text == "" {
		return "", fmt.Errorf("enrichment API returned empty text")
	}

	return result.Text, nil
}

// cbAllow checks whether the circuit breaker permits a request.
func (c *Client) cbAllow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cbState {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(c.cbLastFailureAt) >= cbCooldown {
			c.cbState = cbHalfOpen

			return nil
		}

		return ErrCircuitOpen
	case cbHalfOpen:
		// Already probing, reject additional requests.
		return ErrCircuitOpen
	}

	return nil
}

func (c *Client) cbRecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cbFailures = 0
	c.cbState = cbClosed
}

func (c *Client) cbRecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cbFailures++
	c.cbLastFailureAt = time.Now()

	if c.cbFailures >= cbFailureThreshold || c.cbState == cbHalfOpen {
		c.cbState = cbOpen
	}
}
