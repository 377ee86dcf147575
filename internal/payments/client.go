package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("payment status endpoint not configured")

// Client asks the payment-status function for the state of a registration.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

const defaultTimeout = 10 * time.Second

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type statusRequest struct {
	RegistrationID string `json:"registrationId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Status returns the payment status the remote function reports for the registration.
func (c *Client) Status(ctx context.Context, registrationID string) (string, error) {
	if c.url == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(statusRequest{RegistrationID: registrationID})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment status request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("payment status endpoint returned %d", resp.StatusCode)
	}

	var out statusResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode payment status: %w", err)
	}

	status := strings.TrimSpace(out.Status)
	if status == "" {
		return "", errors.New("payment status endpoint returned an empty status")
	}
	return status, nil
}
