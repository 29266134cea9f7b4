package cowin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/cowinbot/core/logger"
	"github.com/m3rciful/cowinbot/core/telegram/netutil"
)

// DefaultBaseURL is the public CoWIN API root.
const DefaultBaseURL = "https://cdn-api.co-vin.in/api"

const maxErrorBody = 4 << 10

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	// Timeout bounds a single request; 0 relies on transport timeouts only.
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the CoWIN API. Every call is a single attempt.
type Client struct {
	base      string
	userAgent string
	http      *http.Client
}

// New builds a Client.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = netutil.NewHTTPClient(netutil.ClientOptions{Timeout: opts.Timeout})
	}
	return &Client{base: base, userAgent: opts.UserAgent, http: hc}
}

// GenerateOTP asks the API to text an OTP to mobile and returns the transaction id.
// An empty id with a nil error means the API accepted the call without issuing one.
func (c *Client) GenerateOTP(ctx context.Context, mobile, secret string) (string, error) {
	var out generateOTPResponse
	err := c.doJSON(ctx, "generate_otp", http.MethodPost, "/v2/auth/generateMobileOTP", "",
		generateOTPRequest{Mobile: mobile, Secret: secret}, &out)
	if err != nil {
		return "", err
	}
	return out.TxnID, nil
}

// ConfirmOTP exchanges the OTP for a bearer token. The OTP is sent as its SHA-256 hex digest.
func (c *Client) ConfirmOTP(ctx context.Context, otp, txnID string) (string, error) {
	sum := sha256.Sum256([]byte(otp))
	var out confirmOTPResponse
	err := c.doJSON(ctx, "confirm_otp", http.MethodPost, "/v2/auth/validateMobileOtp", "",
		confirmOTPRequest{OTP: hex.EncodeToString(sum[:]), TxnID: txnID}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// ListBeneficiaries returns the beneficiaries registered for the token's phone number.
func (c *Client) ListBeneficiaries(ctx context.Context, token string) ([]Beneficiary, error) {
	var out beneficiariesResponse
	if err := c.doJSON(ctx, "list_beneficiaries", http.MethodGet, "/v2/appointment/beneficiaries", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Beneficiaries, nil
}

// DownloadCertificate fetches the certificate PDF of a beneficiary.
func (c *Client) DownloadCertificate(ctx context.Context, token, beneficiaryID string) ([]byte, error) {
	path := "/v2/registration/certificate/download?beneficiary_reference_id=" + url.QueryEscape(beneficiaryID)
	return c.do(ctx, "download_certificate", http.MethodGet, path, token, nil)
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cowin %s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}
	data, err := c.do(ctx, endpoint, method, path, token, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cowin %s: decode response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path, token string, body io.Reader) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("cowin %s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logCall(ctx, endpoint, 0, 0, start, err)
		return nil, fmt.Errorf("cowin %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := parseAPIError(resp.StatusCode, raw)
		c.logCall(ctx, endpoint, resp.StatusCode, 0, start, apiErr)
		return nil, apiErr
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logCall(ctx, endpoint, resp.StatusCode, len(data), start, err)
		return nil, fmt.Errorf("cowin %s: read body: %w", endpoint, err)
	}
	c.logCall(ctx, endpoint, resp.StatusCode, len(data), start, nil)
	return data, nil
}

func (c *Client) logCall(ctx context.Context, endpoint string, code, size int, start time.Time, err error) {
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("endpoint", endpoint),
		slog.Duration("duration", time.Since(start)),
	}
	if code != 0 {
		attrs = append(attrs, slog.Int("http_code", code))
	}
	if size > 0 {
		attrs = append(attrs, slog.Int("bytes", size))
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.SVCCowin, level, "api.call", attrs...)
}

// parseAPIError prefers the JSON error field over the raw body.
// Message stays empty only when the body is blank.
func parseAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		e.Code = strings.TrimSpace(eb.ErrorCode)
		e.Message = strings.TrimSpace(eb.Error)
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}
