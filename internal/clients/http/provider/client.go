package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

// Client talks to the payment provider's REST API. It covers the single
// operation the order core needs: opening a payment intent correlated to an
// order so the asynchronous webhook can find its way back.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ ports.PaymentProvider = (*Client)(nil)

// NewClient instantiates the provider client with sane defaults.
func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("provider base URL is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("provider API key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent opens a charge for the given order. The order identity rides
// along as intent metadata so webhook events can be correlated back.
func (c *Client) CreateIntent(ctx context.Context, req ports.ChargeRequest) (*ports.ChargeIntent, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("provider client not configured")
	}
	if req.OrderID <= 0 {
		return nil, errors.New("provider charge requires an order id")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount.Shift(2).IntPart(), 10))
	form.Set("currency", req.Currency)
	form.Set("metadata[order_id]", strconv.FormatInt(req.OrderID, 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call provider API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	var parsed intentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode provider response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider API error: %s", errorMessage(&parsed, resp.Status))
	}
	if parsed.ID == "" {
		return nil, errors.New("provider API returned an intent without an id")
	}
	return &ports.ChargeIntent{ID: parsed.ID, ClientSecret: parsed.ClientSecret}, nil
}

func errorMessage(body *intentResponse, fallback string) string {
	if body == nil || body.Error == nil {
		return fallback
	}
	if msg := strings.TrimSpace(body.Error.Message); msg != "" {
		return msg
	}
	return fallback
}
