// Package client provides an HTTP client for the gatepass resident API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evcraddock/gatepass/internal/househelp"
	"github.com/evcraddock/gatepass/internal/telephony"
	"github.com/evcraddock/gatepass/internal/visitor"
)

// Client is an HTTP client for the gatepass API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StaffResult is the response to a staff command.
type StaffResult struct {
	Worker *househelp.Worker  `json:"worker,omitempty"`
	Ticket *househelp.Ticket  `json:"ticket,omitempty"`
	Roster []househelp.Worker `json:"roster"`
}

// ListStaff returns every registered worker.
func (c *Client) ListStaff() ([]househelp.Worker, error) {
	var workers []househelp.Worker
	if err := c.get("/api/staff", &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

// ActiveStaff returns the workers currently in.
func (c *Client) ActiveStaff() ([]househelp.Worker, error) {
	var workers []househelp.Worker
	if err := c.get("/api/staff/active", &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

// RegisterStaff adds a worker. The response carries the issued passcode.
func (c *Client) RegisterStaff(reg househelp.Registration) (*StaffResult, error) {
	var res StaffResult
	if err := c.post("/api/staff", reg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetStatus moves a worker in or out.
func (c *Client) SetStatus(id string, status househelp.Status) (*StaffResult, error) {
	body := map[string]string{"status": string(status)}
	var res StaffResult
	if err := c.post(staffPath(id, "status"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ToggleStatus flips a worker between in and out.
func (c *Client) ToggleStatus(id string) (*StaffResult, error) {
	var res StaffResult
	if err := c.post(staffPath(id, "toggle"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SelectStaff opens a worker's ticket on the server and returns it.
func (c *Client) SelectStaff(id string) (*househelp.Ticket, error) {
	var res StaffResult
	if err := c.post(staffPath(id, "select"), nil, &res); err != nil {
		return nil, err
	}
	if res.Ticket == nil {
		return nil, fmt.Errorf("server returned no ticket")
	}
	return res.Ticket, nil
}

// StaffTicket returns a worker's ticket without selecting it.
func (c *Client) StaffTicket(id string) (*househelp.Ticket, error) {
	var res StaffResult
	if err := c.get(staffPath(id, ""), &res); err != nil {
		return nil, err
	}
	if res.Ticket == nil {
		return nil, fmt.Errorf("server returned no ticket")
	}
	return res.Ticket, nil
}

// CallStaff dials a worker.
func (c *Client) CallStaff(id string, platform telephony.Platform) error {
	body := map[string]string{"platform": string(platform)}
	return c.post(staffPath(id, "call"), body, nil)
}

// ListVisitors returns the resident's visitors.
func (c *Client) ListVisitors() ([]visitor.Visitor, error) {
	var visitors []visitor.Visitor
	if err := c.get("/api/visitors", &visitors); err != nil {
		return nil, err
	}
	return visitors, nil
}

// ActiveVisitors returns visitors currently inside.
func (c *Client) ActiveVisitors() ([]visitor.Visitor, error) {
	var visitors []visitor.Visitor
	if err := c.get("/api/visitors/active", &visitors); err != nil {
		return nil, err
	}
	return visitors, nil
}

// VisitorTicket returns a visitor's ticket.
func (c *Client) VisitorTicket(id int64) (*visitor.Ticket, error) {
	var t visitor.Ticket
	if err := c.get("/api/visitors/"+strconv.FormatInt(id, 10), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CallVisitor dials a visitor.
func (c *Client) CallVisitor(id int64, platform telephony.Platform) error {
	body := map[string]string{"platform": string(platform)}
	return c.post("/api/visitors/"+strconv.FormatInt(id, 10)+"/call", body, nil)
}

// IssueOTP asks the server for a fresh visitor OTP.
func (c *Client) IssueOTP() (string, error) {
	var resp struct {
		OTP string `json:"otp"`
	}
	if err := c.post("/api/visitors/otp", nil, &resp); err != nil {
		return "", err
	}
	return resp.OTP, nil
}

func staffPath(id, action string) string {
	p := "/api/staff/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with an optional JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
