// Package portal is the HTTP client for the university portal REST API.
//
// Response shapes vary between endpoints; they are normalized here once so
// the rest of the program only sees domain types.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	maxBackoff        = 30 * time.Second
	maxErrorBody      = 512
)

// CreateNotificationInput is the body of POST /notifications.
type CreateNotificationInput struct {
	Title       string                  `json:"title"`
	Content     string                  `json:"content"`
	Type        domain.NotificationType `json:"type"`
	UserID      string                  `json:"userId"`
	ActionLink  string                  `json:"actionLink,omitempty"`
	ActionLabel string                  `json:"actionLabel,omitempty"`
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// Client talks to the portal with Bearer authentication and retries
// rate-limited calls with backoff.
type Client struct {
	baseURL    string
	token      string
	tokenInfo  TokenInfo
	httpClient *http.Client
	maxRetries int
	now        func() time.Time
}

// NewClient creates a client. The token is inspected once for its expiry
// and subject.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		tokenInfo:  InspectToken(opts.Token),
		httpClient: httpClient,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Subject returns the user id carried by the token, if any.
func (c *Client) Subject() string {
	return c.tokenInfo.Subject
}

// ListRequests returns the user's change requests.
func (c *Client) ListRequests(ctx context.Context, userID string) ([]domain.ChangeRequest, error) {
	body, err := c.do(ctx, http.MethodGet, "/requests?"+userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	raws, err := normalizeList(body, "requests")
	if err != nil {
		return nil, err
	}
	requests := make([]domain.ChangeRequest, 0, len(raws))
	for _, raw := range raws {
		requests = append(requests, decodeRequest(raw))
	}
	return requests, nil
}

// ListNotifications returns the user's notifications.
func (c *Client) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	body, err := c.do(ctx, http.MethodGet, "/notifications?"+userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	raws, err := normalizeList(body, "notifications")
	if err != nil {
		return nil, err
	}
	notifications := make([]domain.Notification, 0, len(raws))
	for _, raw := range raws {
		notifications = append(notifications, decodeNotification(raw))
	}
	return notifications, nil
}

// CreateNotification persists a notification.
func (c *Client) CreateNotification(ctx context.Context, in CreateNotificationInput) error {
	_, err := c.do(ctx, http.MethodPost, "/notifications", in)
	return err
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil)
	return err
}

// MarkAllRead marks every notification of the user as read.
func (c *Client) MarkAllRead(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodPatch, "/notifications/read-all?"+userQuery(userID), nil)
	return err
}

// Delete removes one notification.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil)
	return err
}

// DeleteAllRead removes every read notification of the user.
func (c *Client) DeleteAllRead(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/notifications/read?"+userQuery(userID), nil)
	return err
}

// UpdatePreferences mirrors the preference document to the backend.
func (c *Client) UpdatePreferences(ctx context.Context, userID string, prefs any) error {
	body := struct {
		UserID      string `json:"userId"`
		Preferences any    `json:"preferences"`
	}{UserID: userID, Preferences: prefs}
	_, err := c.do(ctx, http.MethodPut, "/notifications/preferences", body)
	return err
}

func userQuery(userID string) string {
	return url.Values{"userId": {userID}}.Encode()
}

// do sends one request, retrying on 429, and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.tokenInfo.Expired(c.now()) {
		return nil, &AuthError{Reason: "token expired at " + c.tokenInfo.ExpiresAt.Format(time.RFC3339)}
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(c.token, "Bearer "))
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("%w: reading response of %s %s: %v", ErrUnavailable, method, path, readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = &HTTPError{StatusCode: resp.StatusCode, Method: method, Path: path}
			if attempt < c.maxRetries {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryAfterDuration(resp, attempt)):
				}
			}
			continue
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &AuthError{StatusCode: resp.StatusCode, Reason: errorMessage(respBody, "token rejected")}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, &HTTPError{StatusCode: resp.StatusCode, Method: method, Path: path, Body: errorMessage(respBody, "")}
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// errorMessage extracts {"message": "..."} or {"error": "..."} from an
// error body, falling back to the truncated raw text.
func errorMessage(body []byte, fallback string) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fallback
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

// retryAfterDuration reads the Retry-After header and falls back to
// exponential backoff: 1s, 2s, 4s, ...
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}
