package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
)

// topicSettings serves one SEO channel row with forum topics enabled.
type topicSettings struct {
	chatID  string
	topicID int
}

func (s topicSettings) Get(_ context.Context, key string, into any) (bool, error) {
	if key != domain.SettingTelegramSEO {
		return false, nil
	}
	tg, ok := into.(*domain.TelegramSettings)
	if !ok {
		return false, nil
	}
	tg.Enabled = true
	tg.ChatID = s.chatID
	tg.UseTopics = true
	tg.TopicIDs = map[string]int{"seo": s.topicID}
	return true, nil
}

func (topicSettings) Set(_ context.Context, _ string, _ any, _ string) error { return nil }

func TestSendUsesHTMLParseMode(t *testing.T) {
	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "token-1", topicSettings{chatID: "-100", topicID: 7})
	err := n.Send(context.Background(), &out.ChatMessage{ChatID: "-100", Text: "<b>hello</b>", Topic: "seo"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.ParseMode != "HTML" {
		t.Errorf("parse_mode = %q, want HTML", got.ParseMode)
	}
	if got.MessageThreadID != 7 {
		t.Errorf("message_thread_id = %d, want 7", got.MessageThreadID)
	}
	if got.ChatID != "-100" || got.Text != "<b>hello</b>" {
		t.Errorf("request = %+v", got)
	}
}

func TestSendRetriesWithoutThreadOnTopicError(t *testing.T) {
	var requests []sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		requests = append(requests, req)
		if req.MessageThreadID != 0 {
			json.NewEncoder(w).Encode(sendMessageResponse{
				OK: false, ErrorCode: 400, Description: "Bad Request: message thread not found",
			})
			return
		}
		json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "token-1", topicSettings{chatID: "-100", topicID: 7})
	err := n.Send(context.Background(), &out.ChatMessage{ChatID: "-100", Text: "hello", Topic: "seo"})
	if err != nil {
		t.Fatalf("Send after thread fallback: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2 (thread send then fallback)", len(requests))
	}
	if requests[1].MessageThreadID != 0 {
		t.Error("fallback request should drop the thread id")
	}
	if requests[1].ParseMode != "HTML" {
		t.Errorf("fallback parse_mode = %q, want HTML", requests[1].ParseMode)
	}
}

func TestIsThreadError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"telegram: 400 Bad Request: message thread not found", true},
		{"telegram: 400 Bad Request: TOPIC_CLOSED", true},
		{"telegram: 400 Bad Request: TOPIC_DELETED", true},
		{"telegram: 400 Bad Request: invalid message_thread_id", true},
		{"telegram: 403 Forbidden: bot was blocked by the user", false},
		{"telegram: 429 Too Many Requests", false},
	}
	for _, tt := range tests {
		if got := isThreadError(errors.New(tt.msg)); got != tt.want {
			t.Errorf("isThreadError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
