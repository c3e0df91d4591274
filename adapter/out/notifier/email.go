package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/httputil"
	"github.com/official-panen138/seo-nexus/pkg/logger"
	"github.com/official-panen138/seo-nexus/pkg/resilience"
)

const defaultSender = "SEO Nexus <alerts@seo-nexus.app>"

// EmailNotifier sends HTML alerts through the Resend API. The API key
// from the settings row wins over the environment one so admins can
// rotate keys without a deploy.
type EmailNotifier struct {
	apiURL     string
	defaultKey string
	settings   out.SettingsRepository
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *logger.Logger
}

// NewEmailNotifier creates the Resend adapter.
func NewEmailNotifier(apiURL, defaultKey string, settings out.SettingsRepository) *EmailNotifier {
	return &EmailNotifier{
		apiURL:     apiURL,
		defaultKey: defaultKey,
		settings:   settings,
		client:     httputil.EmailClient(),
		breaker:    resilience.NewSendBreaker("email"),
		log:        logger.Default().WithField("component", "email"),
	}
}

var _ out.EmailNotifier = (*EmailNotifier)(nil)

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendError struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Send posts one email to the provider.
func (e *EmailNotifier) Send(ctx context.Context, msg *out.EmailMessage) error {
	key := e.defaultKey
	sender := defaultSender

	var row domain.EmailSettings
	if ok, err := e.settings.Get(ctx, domain.SettingEmailAlerts, &row); err == nil && ok {
		if row.APIKey != "" {
			key = row.APIKey
		}
		if row.Sender != "" {
			sender = row.Sender
		}
	}
	if key == "" {
		return fmt.Errorf("email: no API key configured")
	}

	_, err := e.breaker.Execute(func() (any, error) {
		body, err := json.Marshal(&resendRequest{
			From:    sender,
			To:      msg.To,
			Subject: msg.Subject,
			HTML:    msg.HTML,
		})
		if err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+key)

		resp, err := e.client.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, nil
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		var apiErr resendError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("email: %s: %s", apiErr.Name, apiErr.Message)
		}
		return nil, fmt.Errorf("email: provider returned status %d", resp.StatusCode)
	})
	return err
}
