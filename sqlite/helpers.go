package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/syopub"
)

// formatTime formats a timestamp for storage. The zero time is stored as
// the empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored timestamp. The empty string yields the zero time.
func parseTime(value, fieldName string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// appendPagination appends LIMIT and OFFSET clauses to a query builder if values are > 0.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 || offset > 0 {
		if limit <= 0 {
			limit = -1
		}
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}

// splitError returns the code and message stored for err.
func splitError(err error) (code, message string) {
	if err == nil {
		return "", ""
	}
	return syopub.ErrorCode(err), err.Error()
}

// joinError restores a stored error.
func joinError(code, message string) error {
	if code == "" && message == "" {
		return nil
	}
	return &syopub.Error{Code: code, Message: message}
}
