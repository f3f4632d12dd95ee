package httpServices

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// WebhookClient posts JSON payloads to a single configured endpoint with
// optional bearer authentication. Both the telemetry sink and the OTP
// delivery channel are plain webhooks sharing this client.
type WebhookClient struct {
	httpClient *http.Client
	url        string
	token      string
}

func NewClient(url, token string) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:   url,
		token: token,
	}
}

// URL returns the configured endpoint.
func (c *WebhookClient) URL() string {
	return c.url
}

// Post marshals the payload and delivers it. Any network failure or
// non-2xx status is returned as an error.
func (c *WebhookClient) Post(payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest("POST", c.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.New("webhook returned non-OK status: " + resp.Status)
	}

	return nil
}
