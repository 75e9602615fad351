// Package identity talks to the remote identity provider: registration,
// password sign-in, account lookup and profile update.
//
// Every operation validates its input locally first and makes no request when
// validation fails. Provider failures are classified into the model error
// sentinels before they are returned. The client never writes the session
// store: persisting a returned credential is the caller's job.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/proplatform/internal/model"
)

// DefaultBaseURL is the production identity endpoint
const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// SessionReader is the slice of session.Store the client needs
type SessionReader interface {
	Read(ctx context.Context) (string, error)
}

// Recorder receives one observation per completed remote call
type Recorder interface {
	ObserveCall(op, outcome string, d time.Duration)
}

// Config holds configuration for the identity client
type Config struct {
	BaseURL string
	APIKey  string

	// HTTPClient defaults to http.DefaultClient; its timeout is the only one applied
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    Recorder

	// RejectConcurrent refuses a second call of the same operation while one is
	// pending, returning model.ErrRequestInFlight. Off by default: concurrent
	// calls race and the caller's last write to the session store wins.
	RejectConcurrent bool
}

// Client is an HTTP client for the identity provider
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	sessions   SessionReader
	logger     *slog.Logger
	metrics    Recorder
	inflight   *inflight
}

// New creates a new identity client. sessions supplies the credential for
// authenticated calls.
func New(sessions SessionReader, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		sessions:   sessions,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if cfg.RejectConcurrent {
		c.inflight = newInflight()
	}
	return c
}

// Register creates an account and returns its credential
func (c *Client) Register(ctx context.Context, in RegisterInput) (model.Credential, error) {
	if err := ValidateRegister(in); err != nil {
		return model.Credential{}, err
	}

	req := signUpRequest{
		DisplayName:       strings.TrimSpace(in.Name),
		Email:             strings.TrimSpace(in.Email),
		Password:          in.Password,
		ReturnSecureToken: true,
	}
	var resp tokenResponse
	if err := c.call(ctx, OpRegister, signUpPath, req, &resp); err != nil {
		return model.Credential{}, err
	}
	if resp.IDToken == "" {
		return model.Credential{}, c.missingToken(OpRegister, model.ErrRegistrationFailed)
	}

	return model.Credential{Token: resp.IDToken}, nil
}

// Login signs in with email and password and returns the credential
func (c *Client) Login(ctx context.Context, in LoginInput) (model.Credential, error) {
	if err := ValidateLogin(in); err != nil {
		return model.Credential{}, err
	}

	req := signInRequest{
		Email:             strings.TrimSpace(in.Email),
		Password:          in.Password,
		ReturnSecureToken: true,
	}
	var resp tokenResponse
	if err := c.call(ctx, OpLogin, signInPath, req, &resp); err != nil {
		return model.Credential{}, err
	}
	if resp.IDToken == "" {
		return model.Credential{}, c.missingToken(OpLogin, model.ErrTransportFailure)
	}

	return model.Credential{Token: resp.IDToken}, nil
}

// FetchProfile looks up the account of the stored credential.
// With no stored credential it returns model.ErrNotAuthenticated and makes no request.
func (c *Client) FetchProfile(ctx context.Context) (model.UserProfile, error) {
	token, err := c.token(ctx)
	if err != nil {
		return model.UserProfile{}, err
	}

	var resp lookupResponse
	if err := c.call(ctx, OpLookup, lookupPath, lookupRequest{IDToken: token}, &resp); err != nil {
		return model.UserProfile{}, err
	}
	if len(resp.Users) == 0 {
		return model.UserProfile{}, &model.ProviderError{
			Op:      string(OpLookup),
			Status:  http.StatusOK,
			Message: "no account in lookup response",
			Kind:    model.ErrProfileFetchFailed,
		}
	}

	return resp.Users[0].toProfile(), nil
}

// UpdateProfile sets the display name and photo of the stored credential's account.
// DisplayName is trimmed before sending; an empty PhotoURL removes the photo.
func (c *Client) UpdateProfile(ctx context.Context, in UpdateProfileInput) error {
	if err := ValidateUpdateProfile(in); err != nil {
		return err
	}

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	req := updateRequest{
		IDToken:     token,
		DisplayName: strings.TrimSpace(in.DisplayName),
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
	}
	if req.PhotoURL == "" {
		req.DeleteAttribute = []string{deletePhotoURL}
	}

	return c.call(ctx, OpUpdate, updatePath, req, nil)
}

// token reads the stored credential, failing with ErrNotAuthenticated when absent
func (c *Client) token(ctx context.Context) (string, error) {
	token, err := c.sessions.Read(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", model.ErrNotAuthenticated
	}
	return token, nil
}

// call posts body to the provider and decodes a successful response into result.
// Failures come back already classified as *model.ProviderError.
func (c *Client) call(ctx context.Context, op Op, path string, body, result any) error {
	release, ok := c.inflight.acquire(op)
	if !ok {
		return model.ErrRequestInFlight
	}
	defer release()

	start := time.Now()
	status, err := c.post(ctx, path, body, result)
	duration := time.Since(start)

	var classified error
	if err != nil {
		classified = Classify(op, err)
	}
	c.observe(op, status, duration, classified)
	return classified
}

// post performs the HTTP exchange. A non-2xx answer is returned as *APIError.
func (c *Client) post(ctx context.Context, path string, body, result any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return resp.StatusCode, &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) endpoint(path string) string {
	u := c.baseURL + "/" + path
	if c.apiKey != "" {
		u += "?" + url.Values{"key": {c.apiKey}}.Encode()
	}
	return u
}

// errorMessage extracts error.message from a provider failure body, falling
// back to the raw body when it is not the structured shape
func errorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) missingToken(op Op, kind error) error {
	err := &model.ProviderError{
		Op:      string(op),
		Status:  http.StatusOK,
		Message: "response missing idToken",
		Kind:    kind,
	}
	c.logger.Warn("identity call returned no token", slog.String("op", string(op)))
	return err
}

func (c *Client) observe(op Op, status int, d time.Duration, err error) {
	outcome := Outcome(err)
	if c.metrics != nil {
		c.metrics.ObserveCall(string(op), outcome, d)
	}

	attrs := []any{
		slog.String("op", string(op)),
		slog.Int("status", status),
		slog.String("outcome", outcome),
		slog.Duration("duration", d),
	}

	var pe *model.ProviderError
	switch {
	case err == nil:
		c.logger.Debug("identity call", attrs...)
	case errors.As(err, &pe) && pe.Err != nil:
		c.logger.Warn("identity call failed", append(attrs, slog.String("error", pe.Err.Error()))...)
	case pe != nil:
		c.logger.Warn("identity call failed", append(attrs, slog.String("message", pe.Message))...)
	default:
		c.logger.Warn("identity call failed", append(attrs, slog.String("error", err.Error()))...)
	}
}
