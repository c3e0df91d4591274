package monitor

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// maxBodyScan caps how much of a probe response body is read for
// soft-block detection.
const maxBodyScan = 5 * 1024

// Outcome is the classification of one probe.
type Outcome struct {
	Status        domain.PingStatus
	HTTPCode      int
	SoftBlockType domain.SoftBlockType
	DownReason    string
}

// Down reasons for transport failures.
const (
	ReasonTimeout    = "Connection Timeout"
	ReasonDNS        = "DNS Error"
	ReasonConnFailed = "Connection Failed"
)

// softBlockIndicators map body substrings to a block classification.
// First match wins, so more specific markers come before generic ones.
var softBlockIndicators = []struct {
	needle string
	kind   domain.SoftBlockType
}{
	{"cf-ray", domain.SoftBlockCloudflare},
	{"checking your browser", domain.SoftBlockCloudflare},
	{"challenge-platform", domain.SoftBlockCloudflare},
	{"recaptcha", domain.SoftBlockCaptcha},
	{"hcaptcha", domain.SoftBlockCaptcha},
	{"captcha", domain.SoftBlockCaptcha},
	{"not available in your country", domain.SoftBlockGeoBlocked},
	{"region blocked", domain.SoftBlockGeoBlocked},
	{"access denied", domain.SoftBlockGeoBlocked},
	{"bot detected", domain.SoftBlockBotProtection},
	{"automated access", domain.SoftBlockBotProtection},
	{"please verify", domain.SoftBlockBotProtection},
}

// detectSoftBlock scans a lowercased body for block markers.
func detectSoftBlock(body string) (domain.SoftBlockType, bool) {
	for _, ind := range softBlockIndicators {
		if strings.Contains(body, ind.needle) {
			return ind.kind, true
		}
	}
	return "", false
}

// classifyResponse maps an HTTP status and body sample to an outcome.
// 2xx/3xx bodies are still scanned: a challenge page served with 200 is
// a soft block, not a healthy domain.
func classifyResponse(code int, body []byte) Outcome {
	out := Outcome{HTTPCode: code}
	lowered := strings.ToLower(string(body))

	switch {
	case code >= 200 && code < 400:
		if kind, ok := detectSoftBlock(lowered); ok {
			out.Status = domain.PingSoftBlocked
			out.SoftBlockType = kind
			return out
		}
		out.Status = domain.PingUp
		return out

	case code == 403 || code == 451:
		if kind, ok := detectSoftBlock(lowered); ok {
			out.Status = domain.PingSoftBlocked
			out.SoftBlockType = kind
			return out
		}
		out.Status = domain.PingDown
		out.DownReason = httpReason(code)
		return out

	default:
		out.Status = domain.PingDown
		out.DownReason = httpReason(code)
		return out
	}
}

func httpReason(code int) string {
	switch code {
	case 403:
		return "HTTP 403 Forbidden"
	case 451:
		return "HTTP 451 Unavailable For Legal Reasons"
	default:
		return "HTTP " + strconv.Itoa(code)
	}
}

// classifyError maps a transport error to a down outcome.
func classifyError(err error) Outcome {
	out := Outcome{Status: domain.PingDown}

	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err), isTimeout(err):
		out.DownReason = ReasonTimeout
	case errors.As(err, &dnsErr), strings.Contains(err.Error(), "no such host"):
		out.DownReason = ReasonDNS
	default:
		out.DownReason = ReasonConnFailed
	}
	return out
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
