package linker

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// Fingerprint derives the dedup key for a detected conflict: SHA-256
// over the pipe-joined identity fields, truncated to 32 hex chars. The
// same structural problem always hashes to the same key across
// detection runs.
func Fingerprint(networkID string, c *domain.DetectedConflict) string {
	parts := []string{
		networkID,
		string(c.Type),
		c.DomainID,
		domain.NormalizePath(c.NodePath),
		strconv.Itoa(c.Tier),
		domain.NormalizePath(c.TargetPath),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:32]
}
