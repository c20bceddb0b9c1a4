package payload

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// eventTypePattern matches event types: hierarchical, full-stop delimited, [a-zA-Z0-9_.]
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// IsJSON reports whether body holds a single valid JSON document
func IsJSON(body string) bool {
	trimmed := strings.TrimSpace(body)
	return trimmed != "" && json.Valid([]byte(trimmed))
}

// Format returns body indented with two spaces when it is JSON
// Anything else comes back untouched; a nil body stays nil
func Format(body *string) *string {
	if body == nil {
		return nil
	}
	if !IsJSON(*body) {
		raw := *body
		return &raw
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(strings.TrimSpace(*body)), "", "  "); err != nil {
		raw := *body
		return &raw
	}
	formatted := out.String()
	return &formatted
}

// EventType returns the "type" field of a JSON object body when it looks like
// an event name such as "invoice.paid". Empty when there is none.
func EventType(body *string) string {
	if body == nil || !IsJSON(*body) {
		return ""
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(*body), &envelope); err != nil {
		return ""
	}
	if !eventTypePattern.MatchString(envelope.Type) {
		return ""
	}
	return envelope.Type
}
