// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Timestamps are stored as RFC3339 UTC strings so range filters work
// with plain string comparison.

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func tsPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return ts(*t)
}

func parseTS(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTSPtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := parseTS(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
