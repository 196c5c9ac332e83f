// Package gateway implements the payment processor wire protocol: signed
// initiation requests and signed status verification. The client owns no
// durable state and never touches the database, so a slow or failing
// gateway call can never hold a transaction open.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

const (
	payPath          = "/pg/v1/pay"
	statusPathPrefix = "/pg/v1/status"
	requestTimeout   = 10 * time.Second
)

// Config carries the gateway credentials explicitly; nothing here is read
// from process-wide state.
type Config struct {
	BaseURL     string
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	RedirectURL string
	CallbackURL string
}

type Client struct {
	cfg     Config
	httpCli *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		cfg:     cfg,
		httpCli: &http.Client{Timeout: requestTimeout},
		breaker: breaker,
		log:     log,
	}
}

type InitiateRequest struct {
	TransactionID string
	BuyerID       string
	Amount        int64 // minor currency units
}

type InitiateResult struct {
	TransactionID string
	RedirectURL   string
}

// Status is the outcome of a verification call. Transport failure is
// reported as an error, never as a status: only an explicit negative
// confirmation from the gateway counts as declined.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusDeclined  Status = "DECLINED"
)

type paymentInstrument struct {
	Type string `json:"type"`
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type gatewayResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// Initiate builds the canonical payload, signs it and posts it to the pay
// endpoint. It never retries; retry policy belongs to the caller.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	payload := payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.TransactionID,
		MerchantUserID:        req.BuyerID,
		Amount:                req.Amount,
		RedirectURL:           c.cfg.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           c.cfg.CallbackURL,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.sign(encoded+payPath))

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var resp gatewayResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode pay response: %w", err)
	}
	if !resp.Success {
		c.log.Warn("gateway rejected initiation",
			zap.String("txn_id", req.TransactionID),
			zap.String("code", resp.Code),
		)
		return nil, fmt.Errorf("gateway code %s: %w", resp.Code, d.ErrGatewayUnavailable)
	}

	return &InitiateResult{
		TransactionID: req.TransactionID,
		RedirectURL:   resp.Data.InstrumentResponse.RedirectInfo.URL,
	}, nil
}

// VerifyStatus recomputes the signature for the status endpoint and maps
// the gateway's success flag to a final status.
func (c *Client) VerifyStatus(ctx context.Context, txnID string) (Status, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPathPrefix, c.cfg.MerchantID, txnID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build status request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.sign(path))
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	respBody, err := c.do(httpReq)
	if err != nil {
		return "", err
	}

	var resp gatewayResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}
	if !resp.Success {
		return StatusDeclined, nil
	}
	return StatusConfirmed, nil
}

// sign derives the X-VERIFY value: hex SHA-256 over the signed material plus
// the shared secret, suffixed with the key-index marker.
func (c *Client) sign(material string) string {
	sum := sha256.Sum256([]byte(material + c.cfg.SaltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.cfg.SaltIndex
}

// do runs the request through the circuit breaker. Transport errors,
// non-2xx responses and an open breaker all surface as ErrGatewayUnavailable.
func (c *Client) do(req *http.Request) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.httpCli.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		c.log.Warn("gateway call failed",
			zap.String("url", req.URL.Path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", d.ErrGatewayUnavailable, err)
	}
	return body, nil
}
