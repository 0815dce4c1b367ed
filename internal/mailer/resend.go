package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/benefits-portal/internal"
)

const resendEndpoint = "https://api.resend.com/emails"

// Resend sends mail through the Resend HTTP API.
type Resend struct {
	client  *http.Client
	apiKey  string
	from    string
	logger  *slog.Logger
	baseURL string
}

func NewResend(apiKey, from string, logger *slog.Logger) *Resend {
	return &Resend{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:  apiKey,
		from:    from,
		logger:  logger,
		baseURL: resendEndpoint,
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	payload := resendRequest{
		From:    r.from,
		To:      msg.To,
		Cc:      msg.Cc,
		Subject: msg.Subject,
		Text:    msg.Body,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return internal.NewUpstreamError("Erro ao enviar e-mail.", internal.ErrCodeMailer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errorText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.Error("mail provider rejected message",
			"status", resp.StatusCode,
			"subject", msg.Subject)
		return internal.NewUpstreamError(
			fmt.Sprintf("Resend error: %s", string(errorText)), internal.ErrCodeMailer, nil)
	}

	return nil
}
