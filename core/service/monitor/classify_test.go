package monitor

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/official-panen138/seo-nexus/core/domain"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		body      string
		want      domain.PingStatus
		wantBlock domain.SoftBlockType
		wantDown  string
	}{
		{
			name: "plain 200 is up",
			code: 200,
			body: "<html>welcome</html>",
			want: domain.PingUp,
		},
		{
			name: "301 is up",
			code: 301,
			body: "",
			want: domain.PingUp,
		},
		{
			name:      "cloudflare challenge with 200",
			code:      200,
			body:      "<html>Checking Your Browser before accessing</html>",
			want:      domain.PingSoftBlocked,
			wantBlock: domain.SoftBlockCloudflare,
		},
		{
			name:      "cf-ray marker",
			code:      200,
			body:      "error page cf-ray: 8c9",
			want:      domain.PingSoftBlocked,
			wantBlock: domain.SoftBlockCloudflare,
		},
		{
			name:      "recaptcha beats generic captcha",
			code:      200,
			body:      "please solve this reCAPTCHA captcha",
			want:      domain.PingSoftBlocked,
			wantBlock: domain.SoftBlockCaptcha,
		},
		{
			name:      "geo block message",
			code:      200,
			body:      "this service is not available in your country",
			want:      domain.PingSoftBlocked,
			wantBlock: domain.SoftBlockGeoBlocked,
		},
		{
			name:      "bot protection",
			code:      200,
			body:      "Bot detected, request blocked",
			want:      domain.PingSoftBlocked,
			wantBlock: domain.SoftBlockBotProtection,
		},
		{
			name:      "403 with block marker is soft blocked",
			code:      403,
			body:      "Access Denied for your region",
			want:      domain.PingSoftBlocked,
			wantBlock: domain.SoftBlockGeoBlocked,
		},
		{
			name:     "bare 403 is down",
			code:     403,
			body:     "",
			want:     domain.PingDown,
			wantDown: "HTTP 403 Forbidden",
		},
		{
			name:     "bare 451 is down",
			code:     451,
			body:     "",
			want:     domain.PingDown,
			wantDown: "HTTP 451 Unavailable For Legal Reasons",
		},
		{
			name:     "500 is down",
			code:     500,
			body:     "internal error",
			want:     domain.PingDown,
			wantDown: "HTTP 500",
		},
		{
			name:     "404 with block marker still down",
			code:     404,
			body:     "captcha",
			want:     domain.PingDown,
			wantDown: "HTTP 404",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := classifyResponse(tt.code, []byte(tt.body))
			if out.Status != tt.want {
				t.Errorf("status = %s, want %s", out.Status, tt.want)
			}
			if out.SoftBlockType != tt.wantBlock {
				t.Errorf("soft block = %s, want %s", out.SoftBlockType, tt.wantBlock)
			}
			if out.DownReason != tt.wantDown {
				t.Errorf("down reason = %q, want %q", out.DownReason, tt.wantDown)
			}
			if out.HTTPCode != tt.code {
				t.Errorf("http code = %d, want %d", out.HTTPCode, tt.code)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: ReasonTimeout,
		},
		{
			name: "net timeout",
			err:  timeoutErr{},
			want: ReasonTimeout,
		},
		{
			name: "dns error",
			err:  &net.DNSError{Err: "no such host", Name: "gone.example"},
			want: ReasonDNS,
		},
		{
			name: "wrapped dns error",
			err:  errors.New("dial tcp: lookup gone.example: no such host"),
			want: ReasonDNS,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 10.0.0.1:443: connect: connection refused"),
			want: ReasonConnFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := classifyError(tt.err)
			if out.Status != domain.PingDown {
				t.Errorf("status = %s, want down", out.Status)
			}
			if out.DownReason != tt.want {
				t.Errorf("down reason = %q, want %q", out.DownReason, tt.want)
			}
		})
	}
}

func TestExpirationDue(t *testing.T) {
	thresholds := domain.DefaultExpirationThresholds

	tests := []struct {
		days int
		want bool
	}{
		{30, true},
		{14, true},
		{7, true},
		{3, true},
		{1, true},
		{0, true},
		{29, false},
		{8, false},
		{2, false},
		{-1, true},
		{-45, true},
	}
	for _, tt := range tests {
		if got := expirationDue(tt.days, thresholds); got != tt.want {
			t.Errorf("expirationDue(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestExpirationKey(t *testing.T) {
	// Far thresholds key per (domain, days) so each crossing alerts once.
	far30 := expirationKey("dom-1", 30)
	far14 := expirationKey("dom-1", 14)
	if far30 == far14 {
		t.Error("far thresholds should produce distinct keys")
	}

	// Inside the final week the key drops the day component.
	near3 := expirationKey("dom-1", 3)
	near1 := expirationKey("dom-1", 1)
	expired := expirationKey("dom-1", -2)
	if near3 != near1 || near1 != expired {
		t.Error("near-expiry keys should collapse to one per domain")
	}
	if near3 == far30 {
		t.Error("near and far keys should differ")
	}

	if expirationKey("dom-1", 3) == expirationKey("dom-2", 3) {
		t.Error("keys should be scoped per domain")
	}
}
