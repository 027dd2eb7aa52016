package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
)

// RegistrationPayload announces this node and its topics to the fleet API so
// ground tooling can discover where the sci cam publishes.
type RegistrationPayload struct {
	NodeID     string   `json:"node_id"`
	CameraID   string   `json:"camera_id"`
	Protocol   string   `json:"protocol"`
	BrokerURL  string   `json:"broker_url"`
	Topics     []string `json:"topics"`
	ControlURL string   `json:"control_url,omitempty"`
}

// Client registers the node with the fleet API over HTTP.
type Client struct {
	apiURL     string
	httpClient *http.Client
	enabled    bool
}

func NewClient(apiURL string, enabled bool) *Client {
	return &Client{
		apiURL:  apiURL,
		enabled: enabled,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register sends the registration payload. Disabled clients do nothing.
func (c *Client) Register(ctx context.Context, payload RegistrationPayload) error {
	if !c.enabled {
		return nil
	}

	if c.apiURL == "" {
		return fmt.Errorf("registration API URL is empty")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal registration payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send registration request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("registration failed with status code: %d", resp.StatusCode)
	}

	if logger.Log != nil {
		logger.Log.Infow("Successfully registered with fleet API",
			"api_url", c.apiURL,
			"node_id", payload.NodeID,
			"topics", payload.Topics)
	}

	return nil
}

// RegisterWithRetry tries once immediately and then keeps retrying every
// minute in the background until registration succeeds or the context ends.
func (c *Client) RegisterWithRetry(ctx context.Context, payload RegistrationPayload) {
	if !c.enabled {
		return
	}

	if err := c.Register(ctx, payload); err == nil {
		return
	} else if logger.Log != nil {
		logger.Log.Warnw("Failed to register with fleet API, will retry every 1 minute",
			"error", err,
			"api_url", c.apiURL)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Register(ctx, payload); err == nil {
					return
				}
			}
		}
	}()
}
