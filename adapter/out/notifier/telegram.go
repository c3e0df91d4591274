// Package notifier implements the outbound chat and email ports against
// the Telegram Bot API and the Resend email API.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/httputil"
	"github.com/official-panen138/seo-nexus/pkg/logger"
	"github.com/official-panen138/seo-nexus/pkg/resilience"
)

// TelegramNotifier sends messages through the Bot API. The bot token and
// forum-topic mapping come from the settings row that owns the target
// chat, with the environment token as fallback.
type TelegramNotifier struct {
	baseURL      string
	defaultToken string
	settings     out.SettingsRepository
	client       *http.Client
	breaker      *gobreaker.CircuitBreaker
	log          *logger.Logger
}

// NewTelegramNotifier creates the Telegram adapter.
func NewTelegramNotifier(baseURL, defaultToken string, settings out.SettingsRepository) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		defaultToken: defaultToken,
		settings:     settings,
		client:       httputil.TelegramClient(),
		breaker:      resilience.NewSendBreaker("telegram"),
		log:          logger.Default().WithField("component", "telegram"),
	}
}

var _ out.ChatNotifier = (*TelegramNotifier)(nil)

type sendMessageRequest struct {
	ChatID          string `json:"chat_id"`
	Text            string `json:"text"`
	MessageThreadID int    `json:"message_thread_id,omitempty"`
	ParseMode       string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send posts a message, resolving the forum thread id for the message's
// topic family. When Telegram rejects the thread (deleted or closed
// topic) the send retries once into the main chat.
func (t *TelegramNotifier) Send(ctx context.Context, msg *out.ChatMessage) error {
	row := t.rowFor(ctx, msg.ChatID)
	token := t.defaultToken
	if row != nil && row.BotToken != "" {
		token = row.BotToken
	}
	if token == "" {
		return fmt.Errorf("telegram: no bot token configured")
	}

	req := sendMessageRequest{ChatID: msg.ChatID, Text: msg.Text, ParseMode: "HTML"}
	if msg.Topic != "" && row != nil && row.UseTopics {
		if threadID, ok := row.TopicIDs[msg.Topic]; ok && threadID > 0 {
			req.MessageThreadID = threadID
		}
	}

	err := t.post(ctx, token, &req)
	if err != nil && req.MessageThreadID != 0 && isThreadError(err) {
		t.log.WithField("topic", msg.Topic).Warn("thread rejected, retrying without topic")
		req.MessageThreadID = 0
		err = t.post(ctx, token, &req)
	}
	return err
}

// rowFor finds the settings row owning the chat id. The SEO and
// monitoring channels may use different bots.
func (t *TelegramNotifier) rowFor(ctx context.Context, chatID string) *domain.TelegramSettings {
	for _, key := range []string{domain.SettingTelegramSEO, domain.SettingTelegramMonitoring} {
		var row domain.TelegramSettings
		if ok, err := t.settings.Get(ctx, key, &row); err == nil && ok && row.ChatID == chatID {
			return &row
		}
	}
	return nil
}

func (t *TelegramNotifier) post(ctx context.Context, token string, req *sendMessageRequest) error {
	_, err := t.breaker.Execute(func() (any, error) {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}

		url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, token)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		var apiResp sendMessageResponse
		if err := json.Unmarshal(raw, &apiResp); err != nil {
			return nil, fmt.Errorf("telegram: status %d: unreadable response", resp.StatusCode)
		}
		if !apiResp.OK {
			return nil, fmt.Errorf("telegram: %d %s", apiResp.ErrorCode, apiResp.Description)
		}
		return nil, nil
	})
	return err
}

// isThreadError matches any Bot API rejection tied to the forum topic,
// covering the "message thread not found", "topic_closed" and
// "message_thread_id invalid" families.
func isThreadError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "thread") || strings.Contains(msg, "topic")
}
