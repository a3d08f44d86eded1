package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/jobportal/profile-sync/internal/api/dto"
	"github.com/jobportal/profile-sync/internal/domain"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

// ErrCircuitOpen is returned while the breaker rejects calls after repeated server failures.
var ErrCircuitOpen = gobreaker.ErrOpenState

// APIError is a non-success response from the portal.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// IsAuthFailure reports whether the caller must sign in again.
func (e *APIError) IsAuthFailure() bool {
	switch e.Code {
	case apperrors.CodeMissingToken, apperrors.CodeInvalidToken, apperrors.CodeTokenExpired, apperrors.CodeForbidden:
		return true
	}
	return false
}

// IsAuthFailure reports whether err is an APIError that requires a new sign-in.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthFailure()
}

// BreakerConfig tunes the client circuit breaker.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns the settings used by NewAPI.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// API is a typed client for the portal's REST surface. It never retries; transport and
// 5xx failures count towards the circuit breaker.
type API struct {
	baseURL string
	http    *http.Client
	session *Session
	breaker *gobreaker.CircuitBreaker[*rawResponse]
}

// NewAPI builds a client rooted at baseURL (including the /app/v1 base path).
func NewAPI(baseURL string, session *Session, httpClient *http.Client) *API {
	return NewAPIWithBreaker(baseURL, session, httpClient, DefaultBreakerConfig("job-portal-api"))
}

// NewAPIWithBreaker is NewAPI with explicit breaker settings.
func NewAPIWithBreaker(baseURL string, session *Session, httpClient *http.Client, cfg BreakerConfig) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
		breaker: gobreaker.NewCircuitBreaker[*rawResponse](settings),
	}
}

// Session returns the session the client authenticates with.
func (a *API) Session() *Session {
	return a.session
}

// BreakerState returns the current circuit breaker state.
func (a *API) BreakerState() gobreaker.State {
	return a.breaker.State()
}

// Login signs in and stores the issued token on the session.
func (a *API) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	a.session.Clear()
	var out dto.AuthResponse
	_, err := a.call(ctx, http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password}, nil, &out)
	if err != nil {
		return nil, err
	}
	if err := a.session.SetToken(out.Token); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the session.
func (a *API) Logout() {
	a.session.Clear()
}

// ProfileResult is a profile read or write outcome.
type ProfileResult struct {
	Profile      *domain.ProfileRecord
	LastModified string
	NotModified  bool
}

// GetProfile reads ownerID's profile. When ifModifiedSince is set and the server reports
// no change, NotModified is true and Profile is nil.
func (a *API) GetProfile(ctx context.Context, ownerID, ifModifiedSince string) (*ProfileResult, error) {
	headers := map[string]string{}
	if ifModifiedSince != "" {
		headers["If-Modified-Since"] = ifModifiedSince
	}
	var profile domain.ProfileRecord
	resp, err := a.call(ctx, http.MethodGet, "/profile/details", ownerID, nil, headers, &profile)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotModified {
		return &ProfileResult{NotModified: true, LastModified: ifModifiedSince}, nil
	}
	return &ProfileResult{Profile: &profile, LastModified: resp.header.Get("Last-Modified")}, nil
}

// UpdateUser sends only the given top-level fields.
func (a *API) UpdateUser(ctx context.Context, ownerID string, fields map[string]string) (*ProfileResult, error) {
	return a.writeProfile(ctx, http.MethodPatch, "/profile/update-user", ownerID, fields)
}

// AddDetails appends entries to section.
func (a *API) AddDetails(ctx context.Context, ownerID string, section domain.SectionKey, entries []map[string]string) (*ProfileResult, error) {
	return a.writeProfile(ctx, http.MethodPost, "/profile/add-details", ownerID, map[string]any{string(section): entries})
}

// UpdateDetails replaces one entry of section. entry may carry "id"; index pins where the
// caller read it.
func (a *API) UpdateDetails(ctx context.Context, ownerID string, section domain.SectionKey, entry map[string]string, index *int) (*ProfileResult, error) {
	body := map[string]any{string(section): []map[string]string{entry}}
	if index != nil {
		body["index"] = *index
	}
	return a.writeProfile(ctx, http.MethodPatch, "/profile/update-details", ownerID, body)
}

// Dashboard reads the admin aggregates.
func (a *API) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	_, err := a.call(ctx, http.MethodGet, "/admin/dashboard", "", nil, nil, &stats)
	return stats, err
}

func (a *API) writeProfile(ctx context.Context, method, path, ownerID string, body any) (*ProfileResult, error) {
	var profile domain.ProfileRecord
	resp, err := a.call(ctx, method, path, ownerID, body, nil, &profile)
	if err != nil {
		return nil, err
	}
	return &ProfileResult{Profile: &profile, LastModified: resp.header.Get("Last-Modified")}, nil
}

// call performs one request. A token the session already knows to be expired is
// reported locally without a round trip.
func (a *API) call(ctx context.Context, method, path, ownerID string, body any, headers map[string]string, out any) (*rawResponse, error) {
	if a.session.Expired() {
		return nil, &APIError{Status: http.StatusUnauthorized, Code: apperrors.CodeTokenExpired, Message: "token expired"}
	}

	target := a.baseURL + path
	if ownerID != "" {
		if self, ok := a.session.Identity(); !ok || self.ID != ownerID {
			target += "?" + url.Values{"ownerId": {ownerID}}.Encode()
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	resp, err := a.breaker.Execute(func() (*rawResponse, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := a.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return a.do(req)
	})
	if err != nil {
		return nil, err
	}

	if out != nil && resp.status != http.StatusNotModified && len(resp.body) > 0 {
		envelope := struct {
			Data any `json:"data"`
		}{Data: out}
		if err := json.Unmarshal(resp.body, &envelope); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func (a *API) do(req *http.Request) (*rawResponse, error) {
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	result := &rawResponse{status: resp.StatusCode, header: resp.Header, body: raw}
	if resp.StatusCode < 400 {
		return result, nil
	}
	return nil, decodeAPIError(result)
}

func decodeAPIError(resp *rawResponse) *APIError {
	apiErr := &APIError{Status: resp.status, Code: apperrors.CodeInternal, Message: http.StatusText(resp.status)}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
	}
	return apiErr
}
