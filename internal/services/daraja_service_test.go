package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hotspotpay/internal/common"
	"hotspotpay/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeDaraja struct {
	server      *httptest.Server
	tokenCalls  int32
	pushCalls   int32
	lastPayload stkPushPayload
	lastAuth    string
	pushStatus  int
	pushBody    string
}

func newFakeDaraja(t *testing.T) *fakeDaraja {
	f := &fakeDaraja{
		pushStatus: http.StatusOK,
		pushBody:   `{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_191220191020363925","ResponseCode":"0","ResponseDescription":"Success. Request accepted for processing","CustomerMessage":"Success. Request accepted for processing"}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" || r.URL.Query().Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-123","expires_in":"3599"}`))
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.pushCalls, 1)
		f.lastAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastPayload))
		w.WriteHeader(f.pushStatus)
		_, _ = w.Write([]byte(f.pushBody))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestDaraja(baseURL string, cache *MockCacheService) *darajaService {
	cfg := config.MpesaConfig{
		BaseURL:           baseURL,
		ConsumerKey:       "key",
		ConsumerSecret:    "secret",
		ShortCode:         "174379",
		Passkey:           "passkey",
		CallbackURL:       "https://example.com/api/stk-callback",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 100,
	}
	var svc GatewayClient
	if cache == nil {
		svc = NewDarajaService(cfg, nil)
	} else {
		svc = NewDarajaService(cfg, cache)
	}
	d := svc.(*darajaService)
	d.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 15, 0, time.UTC) }
	return d
}

func pushRequest() *STKPushRequest {
	return &STKPushRequest{
		Amount:           decimal.RequireFromString("50.75"),
		PhoneNumber:      "254712345678",
		AccountReference: "SAMNET",
		Description:      "Payment for Daily",
	}
}

func TestDaraja_InitiateSTKPush_Payload(t *testing.T) {
	fake := newFakeDaraja(t)
	svc := newTestDaraja(fake.server.URL, nil)

	resp, err := svc.InitiateSTKPush(context.Background(), pushRequest())
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_191220191020363925", resp.CheckoutRequestID)
	assert.Equal(t, "29115-34620561-1", resp.MerchantRequestID)

	p := fake.lastPayload
	assert.Equal(t, "Bearer tok-123", fake.lastAuth)
	// 09:30:15 UTC is 12:30:15 in Nairobi.
	assert.Equal(t, "20260301123015", p.Timestamp)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("174379passkey20260301123015")), p.Password)
	assert.Equal(t, "CustomerPayBillOnline", p.TransactionType)
	assert.Equal(t, int64(50), p.Amount)
	assert.Equal(t, "254712345678", p.PartyA)
	assert.Equal(t, "254712345678", p.PhoneNumber)
	assert.Equal(t, "174379", p.PartyB)
	assert.Equal(t, "174379", p.BusinessShortCode)
	assert.Equal(t, "https://example.com/api/stk-callback", p.CallBackURL)
	assert.Equal(t, "SAMNET", p.AccountReference)
	assert.Equal(t, "Payment for Daily", p.TransactionDesc)
}

func TestDaraja_TokenCachedInRedis(t *testing.T) {
	fake := newFakeDaraja(t)
	cache := &MockCacheService{}
	cache.On("GetString", mock.Anything, darajaTokenKey).Return("", nil).Once()
	cache.On("SetString", mock.Anything, darajaTokenKey, "tok-123", 3539*time.Second).Return(nil).Once()
	cache.On("GetString", mock.Anything, darajaTokenKey).Return("tok-123", nil).Once()

	svc := newTestDaraja(fake.server.URL, cache)
	_, err := svc.InitiateSTKPush(context.Background(), pushRequest())
	require.NoError(t, err)
	_, err = svc.InitiateSTKPush(context.Background(), pushRequest())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.tokenCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&fake.pushCalls))
	cache.AssertExpectations(t)
}

func TestDaraja_RejectedPushIsUpstreamError(t *testing.T) {
	fake := newFakeDaraja(t)
	fake.pushBody = `{"MerchantRequestID":"1","CheckoutRequestID":"","ResponseCode":"1","ResponseDescription":"Rejected"}`
	svc := newTestDaraja(fake.server.URL, nil)

	_, err := svc.InitiateSTKPush(context.Background(), pushRequest())
	assert.True(t, common.IsUpstream(err))
	assert.Contains(t, err.Error(), "Rejected")
}

func TestDaraja_HTTPErrorIsUpstreamError(t *testing.T) {
	fake := newFakeDaraja(t)
	fake.pushStatus = http.StatusBadRequest
	fake.pushBody = `{"requestId":"r-1","errorCode":"400.002.02","errorMessage":"Bad Request - Invalid Amount"}`
	svc := newTestDaraja(fake.server.URL, nil)

	_, err := svc.InitiateSTKPush(context.Background(), pushRequest())
	require.Error(t, err)
	assert.True(t, common.IsUpstream(err))
	assert.Contains(t, err.Error(), "Invalid Amount")
}

func TestDaraja_OAuthFailure(t *testing.T) {
	fake := newFakeDaraja(t)
	svc := newTestDaraja(fake.server.URL, nil)
	svc.cfg.ConsumerSecret = "wrong"

	_, err := svc.InitiateSTKPush(context.Background(), pushRequest())
	assert.True(t, common.IsUpstream(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fake.pushCalls))
}

func TestDaraja_CancelledContext(t *testing.T) {
	fake := newFakeDaraja(t)
	svc := newTestDaraja(fake.server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.InitiateSTKPush(ctx, pushRequest())
	assert.True(t, common.IsUpstream(err))
}

func TestTokenTTL(t *testing.T) {
	assert.Equal(t, 3539*time.Second, tokenTTL("3599"))
	assert.Zero(t, tokenTTL("30"))
	assert.Zero(t, tokenTTL("soon"))
}

func TestStkPassword(t *testing.T) {
	assert.Equal(t, "MTc0Mzc5YWJjMjAyNjAxMDEwMDAwMDA=", stkPassword("174379", "abc", "20260101000000"))
}
