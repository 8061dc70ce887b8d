// Package whatsms sends WhatsApp text messages through the WhatSMS HTTP gateway.
package whatsms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lead-verify/internal/config"
)

const statusSuccess = "SUCCESS"

// Response is the gateway's JSON reply. Status is "SUCCESS" on delivery
// acceptance; ResText carries either a message id or the failure reason.
type Response struct {
	Status  string `json:"status"`
	ResText string `json:"resText"`
}

// Client sends messages through the gateway using a fixed API token and device.
type Client struct {
	baseURL    string
	token      string
	deviceID   string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.WhatSMSBaseURL,
		token:      cfg.WhatSMSToken,
		deviceID:   cfg.WhatSMSDeviceID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendSMS delivers message to the bare international number to (e.g. 27821234567).
func (c *Client) SendSMS(ctx context.Context, to, message string) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse gateway url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	q.Set("deviceId", c.deviceID)
	q.Set("msgType", "text")
	q.Set("message", message)
	q.Set("mobile", to)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if out.Status != statusSuccess {
		return fmt.Errorf("whatsms rejected message: status=%q resText=%q", out.Status, out.ResText)
	}
	return nil
}
