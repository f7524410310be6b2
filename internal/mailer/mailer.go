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

// Mailer отправляет письма через внешний HTTP-сервис доставки.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HTTPMailer struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewHTTPMailer(url string, timeout time.Duration, log *zap.Logger) *HTTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMailer{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, html, text string) error {
	body, err := json.Marshal(sendRequest{To: to, Subject: subject, HTML: html, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("email service request failed: %w", err)
	}
	defer resp.Body.Close()

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("email service bad response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !out.Success {
		return fmt.Errorf("email service rejected message: %s", out.Message)
	}

	m.log.Info("Письмо отправлено", zap.String("to", to), zap.String("subject", subject))
	return nil
}
