package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		MerchantID:  "MERCHANT1",
		SaltKey:     "test-salt-key",
		SaltIndex:   "1",
		RedirectURL: "https://shop.example.com/payment/redirect",
		CallbackURL: "https://shop.example.com/api/v1/orders/payment-status",
	}
}

func expectedSignature(material, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(material + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

func TestInitiate_SignsAndDecodesPayload(t *testing.T) {
	var gotVerify string
	var gotPayload payPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pg/v1/pay", r.URL.Path)
		gotVerify = r.Header.Get("X-VERIFY")

		var body struct {
			Request string `json:"request"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		raw, err := base64.StdEncoding.DecodeString(body.Request)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotPayload))

		// Signature must cover exactly the encoded payload + endpoint path.
		assert.Equal(t, expectedSignature(body.Request+"/pg/v1/pay", "test-salt-key", "1"), gotVerify)

		resp := map[string]interface{}{
			"success": true,
			"code":    "PAYMENT_INITIATED",
			"data": map[string]interface{}{
				"merchantTransactionId": gotPayload.MerchantTransactionID,
				"instrumentResponse": map[string]interface{}{
					"redirectInfo": map[string]interface{}{
						"url": "https://pay.example.com/redirect/abc",
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	result, err := client.Initiate(context.Background(), InitiateRequest{
		TransactionID: "txn-123",
		BuyerID:       "user-1",
		Amount:        2500,
	})

	require.NoError(t, err)
	assert.Equal(t, "txn-123", result.TransactionID)
	assert.Equal(t, "https://pay.example.com/redirect/abc", result.RedirectURL)

	assert.Equal(t, "MERCHANT1", gotPayload.MerchantID)
	assert.Equal(t, "txn-123", gotPayload.MerchantTransactionID)
	assert.Equal(t, "user-1", gotPayload.MerchantUserID)
	assert.Equal(t, int64(2500), gotPayload.Amount)
	assert.Equal(t, "PAY_PAGE", gotPayload.PaymentInstrument.Type)
	assert.Contains(t, gotVerify, "###1")
}

func TestInitiate_Non2xxIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	_, err := client.Initiate(context.Background(), InitiateRequest{TransactionID: "txn-1", Amount: 100})

	require.ErrorIs(t, err, d.ErrGatewayUnavailable)
}

func TestInitiate_TransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	client := NewClient(testConfig(server.URL), zap.NewNop())

	_, err := client.Initiate(context.Background(), InitiateRequest{TransactionID: "txn-1", Amount: 100})

	require.ErrorIs(t, err, d.ErrGatewayUnavailable)
}

func TestVerifyStatus_Confirmed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/pg/v1/status/MERCHANT1/txn-123", r.URL.Path)
		assert.Equal(t,
			expectedSignature("/pg/v1/status/MERCHANT1/txn-123", "test-salt-key", "1"),
			r.Header.Get("X-VERIFY"))
		assert.Equal(t, "MERCHANT1", r.Header.Get("X-MERCHANT-ID"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"code":    "PAYMENT_SUCCESS",
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	status, err := client.VerifyStatus(context.Background(), "txn-123")

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status)
}

func TestVerifyStatus_Declined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"code":    "PAYMENT_ERROR",
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	status, err := client.VerifyStatus(context.Background(), "txn-123")

	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, status)
}

func TestVerifyStatus_TransportFailureIsNotDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	_, err := client.VerifyStatus(context.Background(), "txn-123")

	require.ErrorIs(t, err, d.ErrGatewayUnavailable)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	for i := 0; i < 7; i++ {
		_, err := client.VerifyStatus(context.Background(), "txn-123")
		require.ErrorIs(t, err, d.ErrGatewayUnavailable)
	}

	// After five consecutive failures the breaker short-circuits and stops
	// hitting the gateway.
	assert.Equal(t, 5, hits)
}
