// Package secrets scrubs sensitive material from log lines and debug
// payloads before they leave the process.
package secrets

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const replacement = "[REDACTED]"

// Query-string and field keys that always carry secrets.
var sensitiveKeys = []string{
	"apikey", "api_key", "token", "secret", "authorization", "cookie",
}

var shapePatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
	// JWT-shaped tokens
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
	// key=value query parameters for the sensitive key set
	regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|authorization|cookie)=[^&\s"']+`),
}

// Sanitizer replaces known env secret values and secret-shaped tokens with
// a literal [REDACTED]. One instance is shared process-wide; registering new
// env values is safe concurrently.
type Sanitizer struct {
	mu        sync.RWMutex
	envValues []string
}

// NewSanitizer builds a sanitizer seeded with the given env secret values.
// Empty and very short values are ignored so the scrubber never eats
// ordinary words.
func NewSanitizer(envValues ...string) *Sanitizer {
	s := &Sanitizer{}
	s.RegisterEnvValues(envValues...)
	return s
}

// RegisterEnvValues adds known secret values to the scrub set.
func (s *Sanitizer) RegisterEnvValues(values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		if len(v) >= 8 {
			s.envValues = append(s.envValues, v)
		}
	}
}

// Scrub sanitizes a single string.
func (s *Sanitizer) Scrub(in string) string {
	out := in
	s.mu.RLock()
	for _, v := range s.envValues {
		out = strings.ReplaceAll(out, v, replacement)
	}
	s.mu.RUnlock()
	for _, re := range shapePatterns {
		out = re.ReplaceAllStringFunc(out, func(m string) string {
			// Keep the key name visible for key=value matches.
			if i := strings.IndexByte(m, '='); i > 0 && !strings.ContainsAny(m[:i], " .") {
				return m[:i+1] + replacement
			}
			return replacement
		})
	}
	return out
}

// ScrubMap sanitizes a map recursively, redacting by key name as well as by
// value shape.
func (s *Sanitizer) ScrubMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		if IsSensitiveKey(k) {
			out[k] = replacement
			continue
		}
		out[k] = s.scrubValue(v)
	}
	return out
}

func (s *Sanitizer) scrubValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return s.Scrub(t)
	case map[string]interface{}:
		return s.ScrubMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = s.scrubValue(e)
		}
		return out
	default:
		return v
	}
}

// ScrubJSON sanitizes a JSON document; non-JSON input is scrubbed as text.
func (s *Sanitizer) ScrubJSON(in []byte) []byte {
	var data interface{}
	if err := json.Unmarshal(in, &data); err != nil {
		return []byte(s.Scrub(string(in)))
	}
	out, err := json.Marshal(s.scrubValue(data))
	if err != nil {
		return []byte(replacement)
	}
	return out
}

// IsSensitiveKey reports whether a field or query key belongs to the fixed
// sensitive set.
func IsSensitiveKey(key string) bool {
	lk := strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if lk == sk || strings.HasSuffix(lk, "_"+sk) {
			return true
		}
	}
	return false
}

// Writer wraps an io.Writer-ish sink for zerolog so every emitted line is
// scrubbed on the way out.
type Writer struct {
	S    *Sanitizer
	Sink interface{ Write(p []byte) (int, error) }
}

func (w Writer) Write(p []byte) (int, error) {
	scrubbed := []byte(w.S.Scrub(string(p)))
	if _, err := w.Sink.Write(scrubbed); err != nil {
		return 0, fmt.Errorf("sanitized write: %w", err)
	}
	return len(p), nil
}
