package tupi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
)

// MockHTTPClient is a mock implementation of ports.HTTPClient
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestAdapter(client *MockHTTPClient) *Adapter {
	return NewAdapter(Config{BaseURL: "https://sandbox.tupi.com.br", APIKey: "sk_test"}, client, nil)
}

func issueRequest() ports.IssueChargeRequest {
	expiresAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	return ports.IssueChargeRequest{
		ChargeID:    "charge-1",
		MerchantID:  "merchant-1",
		AmountCents: 5500,
		Description: "order #42",
		ExpiresAt:   &expiresAt,
	}
}

func TestIssuePixCharge_Success(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		if req.Method != http.MethodPost || req.URL.Path != "/v1/pix/charges" {
			return false
		}
		if req.Header.Get("Authorization") != "Bearer sk_test" {
			return false
		}
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			return false
		}
		// cents are converted to currency units on the wire
		return payload["amount"] == "55" && payload["reference"] == "charge-1"
	})).Return(jsonResponse(http.StatusCreated, `{"qr_code":"qr-payload","copy_paste":"copy-paste-payload"}`), nil).Once()

	pix, err := adapter.IssuePixCharge(context.Background(), issueRequest())

	require.NoError(t, err)
	assert.Equal(t, "qr-payload", pix.QRCode)
	assert.Equal(t, "copy-paste-payload", pix.CopyPaste)
	client.AssertExpectations(t)
}

func TestIssueBoletoCharge_Success(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodPost && req.URL.Path == "/v1/boleto/charges"
	})).Return(jsonResponse(http.StatusCreated, `{"boleto_url":"https://boletos.tupi.com.br/123"}`), nil).Once()

	boleto, err := adapter.IssueBoletoCharge(context.Background(), issueRequest())

	require.NoError(t, err)
	assert.Equal(t, "https://boletos.tupi.com.br/123", boleto.BoletoURL)
}

func TestGetBalance(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet && req.URL.Path == "/v1/merchants/merchant-1/balance"
	})).Return(jsonResponse(http.StatusOK, `{"available_cents":123456}`), nil).Once()

	balance, err := adapter.GetBalance(context.Background(), "merchant-1")

	require.NoError(t, err)
	assert.Equal(t, int64(123456), balance)
}

func TestIssuePixCharge_NetworkError(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err := adapter.IssuePixCharge(context.Background(), issueRequest())

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProviderError, domain.GetErrorCode(err))
}

func TestIssuePixCharge_Timeout(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.Anything).Return(nil, context.DeadlineExceeded).Once()

	_, err := adapter.IssuePixCharge(context.Background(), issueRequest())

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProviderTimeout, domain.GetErrorCode(err))
}

func TestIssuePixCharge_RejectedOn4xx(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.Anything).
		Return(jsonResponse(http.StatusUnprocessableEntity, `{"message":"amount below minimum"}`), nil).Once()

	_, err := adapter.IssuePixCharge(context.Background(), issueRequest())

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProviderRejected, domain.GetErrorCode(err))
}

func TestIssuePixCharge_ProviderErrorOn5xx(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.Anything).
		Return(jsonResponse(http.StatusBadGateway, `upstream unavailable`), nil).Once()

	_, err := adapter.IssuePixCharge(context.Background(), issueRequest())

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProviderError, domain.GetErrorCode(err))
}

func TestIssuePixCharge_InvalidResponseBody(t *testing.T) {
	client := new(MockHTTPClient)
	adapter := newTestAdapter(client)

	client.On("Do", mock.Anything).
		Return(jsonResponse(http.StatusOK, `not json`), nil).Once()

	_, err := adapter.IssuePixCharge(context.Background(), issueRequest())

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeProviderError, domain.GetErrorCode(err))
}
