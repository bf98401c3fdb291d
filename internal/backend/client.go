// Package backend fetches visitor records from the property management
// backend that security staff log visitors into.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/visitor"
)

// DefaultBaseURL is the production backend API root.
const DefaultBaseURL = "https://jewapropertypro.com/infinity/api"

// Client fetches visitors from the backend. Concurrent fetches for the same
// resident share one request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	group      singleflight.Group
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type visitorsRequest struct {
	ResidentID int64 `json:"resident_id"`
}

// FetchVisitors returns every visitor logged for a resident, in backend
// order. A malformed response is an *apperr.IngestionFormatError.
// Cancelling ctx abandons the wait but not a request other callers share,
// which is bounded by the client timeout instead.
func (c *Client) FetchVisitors(ctx context.Context, residentID int64) ([]visitor.Visitor, error) {
	if residentID == 0 {
		return nil, &apperr.ValidationError{Field: "resident_id", Reason: "resident ID not found"}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := c.group.DoChan(strconv.FormatInt(residentID, 10), func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), residentID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]visitor.Visitor), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) fetch(ctx context.Context, residentID int64) (visitors []visitor.Visitor, err error) {
	body, err := json.Marshal(visitorsRequest{ResidentID: residentID})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/getallvisitors", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching visitors: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch visitors: unexpected status %d", resp.StatusCode)
	}

	return visitor.Decode(resp.Body)
}
