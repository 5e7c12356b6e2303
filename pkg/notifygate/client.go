package notifygate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the platform's notification gateway, which renders and
// delivers the actual email/SMS. Template selection happens on the gateway
// side; we only post the address and the order summary payload.
type Client struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
}

type SendRequest struct {
	Address  string      `json:"address"`
	Template string      `json:"template"`
	Payload  interface{} `json:"payload"`
}

type SendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		NotificationID string `json:"notification_id"`
		Status         string `json:"status"`
	} `json:"data"`
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts a notification to the gateway
func (c *Client) Send(address, template string, payload interface{}) (*SendResponse, error) {
	requestData := SendRequest{
		Address:  address,
		Template: template,
		Payload:  payload,
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	url := fmt.Sprintf("%s/v1/notifications/send", c.BaseURL)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response SendResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !response.Success {
		return &response, fmt.Errorf("gateway rejected notification: %s", response.Message)
	}

	return &response, nil
}

// Send order confirmation with the default template
func (c *Client) SendOrderConfirmation(address string, payload interface{}) error {
	_, err := c.Send(address, "order_confirmation", payload)
	return err
}
