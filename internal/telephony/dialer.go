// Package telephony places phone calls to workers and visitors on behalf
// of a resident.
package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Platform is the resident's device platform.
type Platform string

const (
	IOS     Platform = "ios"
	Android Platform = "android"
	Web     Platform = "web"
)

// DialURL returns the URL a device opens to start a call.
// iOS gets telprompt so the user confirms before dialing.
func DialURL(phone string, platform Platform) string {
	if strings.EqualFold(string(platform), string(IOS)) {
		return "telprompt:" + phone
	}
	return "tel:" + phone
}

// Dialer starts a call to phone.
type Dialer interface {
	Dial(ctx context.Context, phone string, platform Platform) error
}

// LogDialer logs the dial URL instead of calling. Used in dev mode.
type LogDialer struct{}

// Dial logs the call and always succeeds.
func (LogDialer) Dial(ctx context.Context, phone string, platform Platform) error {
	slog.InfoContext(ctx, "[DEV] dial", "url", DialURL(phone, platform), "platform", string(platform))
	return nil
}

// WebhookDialer hands calls to a click-to-call provider over HTTP.
type WebhookDialer struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewWebhookDialer creates a dialer posting to url, allowing at most
// perMinute calls per minute.
func NewWebhookDialer(url string, perMinute int) (*WebhookDialer, error) {
	if url == "" {
		return nil, fmt.Errorf("dial webhook URL is required")
	}
	if perMinute <= 0 {
		return nil, fmt.Errorf("dial rate must be positive, got %d", perMinute)
	}
	return &WebhookDialer{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}, nil
}

type dialRequest struct {
	Phone    string   `json:"phone"`
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
}

// Dial posts the call to the provider. It fails without waiting when the
// rate limit is exceeded.
func (d *WebhookDialer) Dial(ctx context.Context, phone string, platform Platform) (err error) {
	if !d.limiter.Allow() {
		return fmt.Errorf("too many calls, try again shortly")
	}

	body, err := json.Marshal(dialRequest{Phone: phone, URL: DialURL(phone, platform), Platform: platform})
	if err != nil {
		return fmt.Errorf("marshaling dial request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending dial request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("provider rejected call: status %d", resp.StatusCode)
	}

	return nil
}
