package webhook

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultPageSize is used when the caller does not ask for a specific limit
const DefaultPageSize = 30

// MaxPageSize caps a single page
const MaxPageSize = 100

// ValidateLimit rejects page sizes that cannot produce a page.
// Stores accept any positive limit; MaxPageSize is enforced by ValidatePageSize.
func ValidateLimit(limit int) error {
	if limit <= 0 {
		return &ValidationError{Field: "limit", Reason: "must be greater than zero"}
	}
	return nil
}

// ValidatePageSize bounds the limit a client may ask for
func ValidatePageSize(limit int) error {
	if err := ValidateLimit(limit); err != nil {
		return err
	}
	if limit > MaxPageSize {
		return &ValidationError{Field: "limit", Reason: fmt.Sprintf("must not exceed %d", MaxPageSize)}
	}
	return nil
}

// CanonicalID returns id in the lowercase hyphenated form the stores key on.
// Uppercase, braced and urn:uuid: spellings of the same UUID are accepted.
func CanonicalID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", &ValidationError{Field: "id", Reason: "must be a UUID"}
	}
	return parsed.String(), nil
}

// CanonicalIDs keeps the parseable ids of ids in canonical form, in order
func CanonicalIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if canonical, err := CanonicalID(id); err == nil {
			valid = append(valid, canonical)
		}
	}
	return valid
}

// ParseCursor turns the raw query value into an optional cursor
// An empty value means "first page"
func ParseCursor(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	cursor, err := CanonicalID(raw)
	if err != nil {
		return nil, &ValidationError{Field: "cursor", Reason: "must be a webhook id"}
	}
	return &cursor, nil
}

// NextCursor picks the cursor for a page fetched with one row of lookahead
// rows holds up to limit+1 items; only the first limit are returned
func NextCursor(rows []Summary, limit int) ([]Summary, *string) {
	if len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	next := rows[len(rows)-1].ID
	return rows, &next
}
