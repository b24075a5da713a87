package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"hotspotpay/internal/caching"
	"hotspotpay/internal/common"
	"hotspotpay/internal/config"
	"hotspotpay/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	darajaTokenPath    = "/oauth/v1/generate?grant_type=client_credentials"
	darajaSTKPushPath  = "/mpesa/stkpush/v1/processrequest"
	darajaTokenKey     = "hotspotpay:daraja:token"
	darajaTimestamp    = "20060102150405"
	transactionTypePay = "CustomerPayBillOnline"
)

// GatewayClient starts push payments with the mobile-money gateway.
type GatewayClient interface {
	InitiateSTKPush(ctx context.Context, req *STKPushRequest) (*STKPushResponse, error)
}

type STKPushRequest struct {
	Amount           decimal.Decimal
	PhoneNumber      string
	AccountReference string
	Description      string
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type darajaErrorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type darajaService struct {
	cfg     config.MpesaConfig
	http    *http.Client
	cache   caching.CacheService
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	loc     *time.Location
	now     func() time.Time
}

// NewDarajaService creates a Daraja client. cache may be nil, in which case a
// token is fetched for every push.
func NewDarajaService(cfg config.MpesaConfig, cache caching.CacheService) GatewayClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	s := &darajaService{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		loc:     nairobi(),
		now:     time.Now,
	}

	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "daraja",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("WARN: circuit breaker '%s' changed from %s to %s", name, from, to)
		},
	})

	return s
}

// Daraja expects timestamps in East Africa Time.
func nairobi() *time.Location {
	loc, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		return time.FixedZone("EAT", 3*60*60)
	}
	return loc
}

// stkPassword is base64(shortcode + passkey + timestamp).
func stkPassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

func (s *darajaService) InitiateSTKPush(ctx context.Context, req *STKPushRequest) (*STKPushResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, common.NewUpstreamError("stk push", err)
	}

	start := time.Now()
	result, err := s.cb.Execute(func() (interface{}, error) {
		token, err := s.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		return s.push(ctx, token, req)
	})
	metrics.GatewayRequestDuration.WithLabelValues("stkpush").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("stkpush", "error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Printf("WARN: Daraja circuit open, rejecting STK push for %s", req.PhoneNumber)
		}
		return nil, common.NewUpstreamError("stk push", err)
	}

	metrics.GatewayRequestsTotal.WithLabelValues("stkpush", "ok").Inc()
	return result.(*STKPushResponse), nil
}

func (s *darajaService) push(ctx context.Context, token string, req *STKPushRequest) (*STKPushResponse, error) {
	timestamp := s.now().In(s.loc).Format(darajaTimestamp)
	payload := stkPushPayload{
		BusinessShortCode: s.cfg.ShortCode,
		Password:          stkPassword(s.cfg.ShortCode, s.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   transactionTypePay,
		Amount:            req.Amount.IntPart(),
		PartyA:            req.PhoneNumber,
		PartyB:            s.cfg.ShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       s.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+darajaSTKPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, status, err := s.do(httpReq)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && s.cache != nil {
		// Token revoked before its advertised expiry.
		if delErr := s.cache.Delete(ctx, darajaTokenKey); delErr != nil {
			log.Printf("WARN: failed to drop cached Daraja token: %v", delErr)
		}
	}

	var resp STKPushResponse
	if status != http.StatusOK {
		return nil, fmt.Errorf("stk push returned %d: %s", status, describeDarajaError(respBody))
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse stk push response: %w", err)
	}
	if resp.ResponseCode != "0" {
		return nil, fmt.Errorf("stk push rejected with code %s: %s", resp.ResponseCode, resp.ResponseDescription)
	}
	if resp.CheckoutRequestID == "" {
		return nil, errors.New("stk push response missing CheckoutRequestID")
	}
	return &resp, nil
}

func (s *darajaService) accessToken(ctx context.Context) (string, error) {
	if s.cache != nil {
		token, err := s.cache.GetString(ctx, darajaTokenKey)
		if err != nil {
			log.Printf("WARN: Daraja token cache read failed: %v", err)
		} else if token != "" {
			return token, nil
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+darajaTokenPath, nil)
	if err != nil {
		return "", err
	}
	httpReq.SetBasicAuth(s.cfg.ConsumerKey, s.cfg.ConsumerSecret)

	body, status, err := s.do(httpReq)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("oauth returned %d: %s", status, describeDarajaError(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse oauth response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("oauth response missing access_token")
	}

	if s.cache != nil {
		if ttl := tokenTTL(tok.ExpiresIn); ttl > 0 {
			if err := s.cache.SetString(ctx, darajaTokenKey, tok.AccessToken, ttl); err != nil {
				log.Printf("WARN: Daraja token cache write failed: %v", err)
			}
		}
	}
	return tok.AccessToken, nil
}

// tokenTTL keeps a minute of slack before the advertised expiry.
func tokenTTL(expiresIn string) time.Duration {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 60 {
		return 0
	}
	return time.Duration(secs-60) * time.Second
}

func (s *darajaService) do(req *http.Request) ([]byte, int, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func describeDarajaError(body []byte) string {
	var e darajaErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.ErrorMessage != "" {
		return fmt.Sprintf("%s (%s)", e.ErrorMessage, e.ErrorCode)
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
