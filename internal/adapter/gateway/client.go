package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/infrastructure/metrics"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 500 * time.Millisecond

	// One retry per transfer. The withdrawal ID doubles as the provider
	// reference, so a replayed request settles the same transfer.
	maxRetries = 1
)

// Client is an HTTP client for one payout provider.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	provider      string
	retryInterval time.Duration
	metrics       *metrics.Metrics
}

// NewClient creates a payout provider client. provider names the
// upstream in logs, metrics and GatewayError values.
func NewClient(provider, baseURL, apiKey string, timeout time.Duration, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		apiKey:        apiKey,
		provider:      provider,
		retryInterval: defaultRetryInterval,
		metrics:       m,
	}
}

type transferPayload struct {
	Reference   string             `json:"reference"`
	Amount      string             `json:"amount"`
	Currency    string             `json:"currency"`
	Method      string             `json:"method"`
	Destination destinationPayload `json:"destination"`
}

type destinationPayload struct {
	BankName           string `json:"bank_name,omitempty"`
	BankAccountName    string `json:"bank_account_name,omitempty"`
	BankAccountNumber  string `json:"bank_account_number,omitempty"`
	EWalletName        string `json:"ewallet_name,omitempty"`
	EWalletNumber      string `json:"ewallet_number,omitempty"`
	ConnectedAccountID string `json:"connected_account_id,omitempty"`
}

type transferResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errTransient marks a response worth one retry.
type errTransient struct{ err error }

func (e *errTransient) Error() string { return e.err.Error() }
func (e *errTransient) Unwrap() error { return e.err }

// Transfer pushes funds to the destination. A timeout or 5xx is retried
// once; any remaining failure comes back as a *domain.GatewayError.
func (c *Client) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferReceipt, error) {
	start := time.Now()

	var receipt *domain.TransferReceipt

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			if c.metrics != nil {
				c.metrics.GatewayRetries.Inc()
			}
			log.Warn().
				Str("provider", c.provider).
				Str("withdrawal_id", req.WithdrawalID).
				Msg("retrying gateway transfer")
		}

		r, err := c.doTransfer(ctx, req)
		if err != nil {
			var transient *errTransient
			if errors.As(err, &transient) {
				return err
			}
			return backoff.Permanent(err)
		}

		receipt = r

		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryInterval), maxRetries), ctx)

	err := backoff.Retry(operation, b)

	if c.metrics != nil {
		c.metrics.GatewayDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())

		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.GatewayRequests.WithLabelValues(c.provider, status).Inc()
	}

	if err != nil {
		var transient *errTransient
		if errors.As(err, &transient) {
			err = transient.err
		}

		return nil, &domain.GatewayError{
			Err:      err,
			Provider: c.provider,
			Timeout:  errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err),
		}
	}

	return receipt, nil
}

func (c *Client) doTransfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferReceipt, error) {
	payload := transferPayload{
		Reference: req.WithdrawalID,
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		Method:    string(req.Destination.Method),
		Destination: destinationPayload{
			BankName:           req.Destination.BankName,
			BankAccountName:    req.Destination.BankAccountName,
			BankAccountNumber:  req.Destination.BankAccountNumber,
			EWalletName:        req.Destination.EWalletName,
			EWalletNumber:      req.Destination.EWalletNumber,
			ConnectedAccountID: req.Destination.ConnectedAccountID,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &errTransient{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errTransient{err: err}
	}

	if resp.StatusCode >= 500 {
		return nil, &errTransient{err: fmt.Errorf("provider returned status %d", resp.StatusCode)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("provider rejected transfer (%s): %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("provider rejected transfer with status %d", resp.StatusCode)
	}

	var result transferResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}

	if result.TransactionID == "" {
		return nil, errors.New("provider response missing transaction id")
	}

	return &domain.TransferReceipt{
		TransactionID: result.TransactionID,
		Provider:      c.provider,
	}, nil
}

func isClientTimeout(err error) bool {
	var urlErr interface{ Timeout() bool }
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
