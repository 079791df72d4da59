package repositories

import "context"

// Table names and their fixed column orders. The reference deployment kept
// one spreadsheet tab per form kind; the column order here mirrors those
// sheet headers.
const (
	TableRegistrations   = "registrations"
	TableContactMessages = "contact_messages"
)

var (
	RegistrationHeader = []string{
		"submitted_at", "team_id", "team_name", "event_name", "team_size",
		"leader_name", "mate_name", "college", "department", "year",
		"phone", "email", "payment_status", "user_agent",
	}

	ContactHeader = []string{
		"submitted_at", "ticket_id", "name", "email", "phone",
		"subject", "message", "status", "user_agent",
	}
)

// RecordStore is a minimal append-only table store. Any backend that can
// create a table with a fixed header and append rows in that column order
// satisfies it; rejected submissions must never reach Append.
type RecordStore interface {
	// EnsureTable creates the table with the given header if it is absent
	// and registers the column order for subsequent appends.
	EnsureTable(ctx context.Context, table string, header []string) error

	// Append adds one row; len(row) must match the registered header.
	Append(ctx context.Context, table string, row []string) error

	// CountRows reports the number of appended rows.
	CountRows(ctx context.Context, table string) (int, error)
}
