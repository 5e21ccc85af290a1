package sms

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"
)

// Client sends OTP SMS messages through the external gateway. Delivery is a
// collaborator call and never runs inside a ticket-record transaction.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	appName    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: os.Getenv("SMS_GATEWAY_URL"),
		token:   os.Getenv("SMS_GATEWAY_TOKEN"),
		appName: os.Getenv("APP_NAME"),
	}
}

// SendOTP delivers a one-time code to the given phone number.
func (c *Client) SendOTP(phone, code string) error {
	if c.baseURL == "" {
		return errors.New("SMS gateway URL is not configured")
	}

	body, err := json.Marshal(SendOTPRequest{
		AppName: c.appName,
		OTPCode: code,
		Phone:   phone,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest("POST", c.baseURL+"/send-otp", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("SMS gateway returned non-OK status: " + resp.Status)
	}

	var apiResp SendOTPResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return err
	}
	if !apiResp.Status {
		return errors.New("SMS gateway rejected message: " + apiResp.Message)
	}
	return nil
}
