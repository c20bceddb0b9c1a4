package webhook

import "time"

/* Webhook represents one captured inbound request
 * Uses value semantics as it represents data, not behavior
 * Nullable columns are pointers so "absent" and "empty" stay distinct
 */
type Webhook struct {
	ID            string
	Method        string
	Pathname      string
	IP            string
	StatusCode    int
	ContentType   *string
	ContentLength *int64
	QueryParams   map[string]string
	Headers       map[string]string
	Body          *string
	CreatedAt     time.Time
}

// Summary is the listing projection of a Webhook
type Summary struct {
	ID        string
	Method    string
	Pathname  string
	CreatedAt time.Time
}

// Summary returns the listing projection of the webhook
func (w Webhook) Summary() Summary {
	return Summary{
		ID:        w.ID,
		Method:    w.Method,
		Pathname:  w.Pathname,
		CreatedAt: w.CreatedAt,
	}
}

// Page is one slice of the (created_at desc, id desc) ordering
type Page struct {
	Items []Summary
	// NextCursor is nil when no record exists past the last item
	NextCursor *string
}
