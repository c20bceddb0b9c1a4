package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for captured webhooks
type Reader interface {
	Get(ctx context.Context, id string) (Webhook, error)
	/* GetByIDs returns the subset of ids that exist, in no particular order
	 * Missing ids are simply absent from the result
	 */
	GetByIDs(ctx context.Context, ids []string) ([]Webhook, error)
	/* Page returns up to limit summaries strictly after cursor in
	 * (created_at desc, id desc) order. A nil cursor starts from the most recent
	 */
	Page(ctx context.Context, cursor *string, limit int) (Page, error)
}

// Writer provides write operations for captured webhooks
type Writer interface {
	// Insert fails with ErrConflict when the id already exists
	Insert(ctx context.Context, webhook Webhook) (Webhook, error)
	/* Clear deletes every record
	 * Maintenance and seeding only, never reachable from the serving path
	 */
	Clear(ctx context.Context) error
}

// Counter provides aggregate reads used by metrics
type Counter interface {
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
	Counter
	Close(ctx context.Context) error
}

// Publisher announces stored captures to live followers
type Publisher interface {
	Publish(ctx context.Context, summary Summary) error
}
