// internal/app/system/mailer/mailer.go

// Package mailer sends email through the association's transactional-email
// provider. The provider exposes a single HTTP endpoint taking sender,
// recipient, subject, and HTML body, authenticated with a static API key.
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

// Email is one outbound message. From fields are filled per organization by
// the dispatcher; template builders leave them empty.
type Email struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// sendRequest is the provider's wire format.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// sendResponse is the success payload; the provider returns a message id.
type sendResponse struct {
	ID string `json:"id"`
}

// Mailer is the provider client. Construct one at startup and inject it;
// there is no package-level transport state.
type Mailer struct {
	apiURL string
	apiKey string
	client *http.Client
	log    *zap.Logger
}

// New builds a Mailer for the given provider endpoint and API key.
func New(apiURL, apiKey string, logger *zap.Logger) *Mailer {
	return &Mailer{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}
}

// Send delivers one email. A non-2xx provider response is returned as an
// error carrying the provider's message; callers record it per recipient
// and move on.
func (m *Mailer) Send(ctx context.Context, msg Email) error {
	from := msg.FromEmail
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}

	body, err := json.Marshal(sendRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var provider struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&provider)
		if provider.Message != "" {
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, provider.Message)
		}
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}

	var ok sendResponse
	_ = json.NewDecoder(resp.Body).Decode(&ok)
	m.log.Debug("email accepted",
		zap.String("to", msg.To),
		zap.String("message_id", ok.ID))
	return nil
}
