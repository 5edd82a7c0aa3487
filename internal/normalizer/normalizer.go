// Package normalizer maps provider-shaped records onto core.CanonicalArticle.
package normalizer

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"
)

// ErrUnknownProvider is returned for a provider name with no mapping.
var ErrUnknownProvider = errors.New("normalizer: unknown provider")

type mapper func(raw json.RawMessage) (core.CanonicalArticle, error)

var mappers = map[string]mapper{
	core.ProviderNewsAPI:  normalizeNewsAPI,
	core.ProviderGuardian: normalizeGuardian,
	core.ProviderNYT:      normalizeNYT,
}

// Supports reports whether provider has a mapping.
func Supports(provider string) bool {
	_, ok := mappers[provider]
	return ok
}

// Normalize maps every record in order. A record that cannot be decoded
// becomes an empty article, which storage validation rejects; the batch
// itself never fails except for an unknown provider.
func Normalize(records []json.RawMessage, provider string) ([]core.CanonicalArticle, error) {
	m, ok := mappers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	out := make([]core.CanonicalArticle, 0, len(records))
	for _, raw := range records {
		a, err := m(raw)
		if err != nil {
			a = core.CanonicalArticle{}
		}
		out = append(out, a)
	}
	return out, nil
}

// ExternalID derives a stable id from the provider and the article URL.
func ExternalID(provider, url string) string {
	sum := md5.Sum([]byte(url))
	return provider + "_" + hex.EncodeToString(sum[:])
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate is best effort; anything unparsable is nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// optional turns blank strings into nil.
func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// appendUnique appends the trimmed non-empty values not already present, in order.
func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

// splitAuthors splits a comma separated author line.
func splitAuthors(s string) []string {
	authors := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			authors = append(authors, part)
		}
	}
	return authors
}
