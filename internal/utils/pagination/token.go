package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EntryCursor identifies the last journal entry of a page. Entries are ordered by
// entry date descending with entry number as the tie-breaker.
type EntryCursor struct {
	EntryDate   time.Time
	EntryNumber string
}

// EncodeEntryCursor serialises a cursor into an opaque URL-safe token.
func EncodeEntryCursor(c EntryCursor) string {
	raw := c.EntryDate.UTC().Format(timeFormat) + "|" + c.EntryNumber
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeEntryCursor parses a token produced by EncodeEntryCursor.
func DecodeEntryCursor(token string) (EntryCursor, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return EntryCursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return EntryCursor{}, fmt.Errorf("invalid pagination token format (split)")
	}
	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return EntryCursor{}, fmt.Errorf("invalid pagination token format (entry date parse): %w", err)
	}
	return EntryCursor{EntryDate: date, EntryNumber: parts[1]}, nil
}

// ClampLimit applies a default page size and an upper bound.
func ClampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
