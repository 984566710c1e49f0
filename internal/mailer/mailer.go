package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config for the transactional email backend.
type Config struct {
	BaseURL    string
	Username   string
	Password   string
	TemplateID int
}

// Client sends invite emails through a transactional email HTTP API.
// An empty BaseURL turns sends into log lines, which keeps local
// development working without the backend.
type Client struct {
	config Config
	http   *http.Client
	log    *zap.Logger
}

// New creates a mailer client.
func New(cfg Config, log *zap.Logger) *Client {
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type txRequest struct {
	SubscriberEmail string            `json:"subscriber_email"`
	TemplateID      int               `json:"template_id"`
	Data            map[string]string `json:"data"`
	ContentType     string            `json:"content_type"`
}

// SendInvite delivers a collaboration invite token to an email address.
func (c *Client) SendInvite(ctx context.Context, email, sessionName, token, role string) error {
	if c.config.BaseURL == "" {
		c.log.Info("mailer not configured, logging invite",
			zap.String("email", email),
			zap.String("session", sessionName),
			zap.String("role", role))
		return nil
	}

	body := txRequest{
		SubscriberEmail: email,
		TemplateID:      c.config.TemplateID,
		Data: map[string]string{
			"sessionName": sessionName,
			"inviteToken": token,
			"role":        role,
		},
		ContentType: "html",
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal invite email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/tx", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create invite email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.config.Username, c.config.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail backend returned status %d", resp.StatusCode)
	}
	return nil
}
