package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
)

const (
	updateBalancePath           = "update-balance"
	defaultTimeout              = 5 * time.Second
	responseBodyReadLimit int64 = 1024

	ActionCredit = "credit"
)

var errBaseURLRequired = errors.New("wallet base url is required")

// Credit describes one balance update pushed to the wallet service.
type Credit struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Type   string
}

// Client calls the wallet balance-update endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	source     string
	timeout    time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey sets the bearer key sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithSource overrides the source tag attached to balance updates.
func WithSource(source string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(source); trimmed != "" {
			c.source = trimmed
		}
	}
}

// WithTimeout bounds every balance update.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient builds the wallet client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL: trimmed,
		source:  "rewards",
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.timeout}
	}
	return client, nil
}

type updateBalanceRequest struct {
	UserID string      `json:"userId"`
	Amount json.Number `json:"amount"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Source string      `json:"source"`
}

// CreditBalance pushes a credit to the wallet. Any non-2xx response is a failure.
func (c *Client) CreditBalance(ctx context.Context, credit Credit) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "wallet client not configured")
	}
	if credit.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet credit user id is required")
	}
	if credit.Amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet credit amount must not be negative")
	}

	payload, err := json.Marshal(updateBalanceRequest{
		UserID: credit.UserID.String(),
		Amount: json.Number(credit.Amount.String()),
		Type:   credit.Type,
		Action: ActionCredit,
		Source: c.source,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal wallet request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(updateBalancePath), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build wallet request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute wallet request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "wallet balance update failed")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
}

// Noop accepts every credit without calling out. Used when wallet sync is disabled.
type Noop struct{}

func (Noop) CreditBalance(context.Context, Credit) error { return nil }
