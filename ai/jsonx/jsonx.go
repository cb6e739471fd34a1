// Package jsonx decodes model output that is supposed to be JSON but
// often arrives wrapped in markdown code fences.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// StripFences removes a leading ```json (or bare ```) fence and a trailing
// ``` fence from model output, leaving interior text untouched.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return text
}

// Decode strips fences and unmarshals the remainder into v. On failure the
// raw (fence-stripped) text is returned alongside the error so callers can
// fall back to pass-through behavior.
func Decode(text string, v any) (raw string, err error) {
	raw = StripFences(text)
	if err = json.Unmarshal([]byte(raw), v); err != nil {
		return raw, err
	}
	return raw, nil
}
