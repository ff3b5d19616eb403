// Package pagination implements the opaque keyset cursors used by list
// endpoints. Cursors are URL-safe so clients can pass them back verbatim in a
// query string.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

const (
	timeCursorTag = "t"
	seqCursorTag  = "seq"
)

var errMalformed = errors.New("invalid cursor format")

type Params struct {
	Limit  int
	Cursor string
}

// Cursor addresses a row in (created_at DESC, id DESC) order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NormalizeLimit clamps limit into [1, MaxLimit], defaulting non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks the store for one extra row so Trim can tell whether
// another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func Trim[T any](rows []T, limit int) ([]T, bool) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, false
	}
	return rows[:limit], true
}

func EncodeCursor(c Cursor) string {
	return encode(timeCursorTag, c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID.String())
}

// ParseCursor returns nil for an empty value.
func ParseCursor(value string) (*Cursor, error) {
	parts, err := decode(value, timeCursorTag, 2)
	if err != nil || parts == nil {
		return nil, err
	}
	at, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: at, ID: id}, nil
}

// EncodeSequence builds a cursor over a strictly increasing sequence such as
// wallet entry numbers.
func EncodeSequence(seq int64) string {
	return encode(seqCursorTag, strconv.FormatInt(seq, 10))
}

// ParseSequence reports ok=false for an empty value.
func ParseSequence(value string) (int64, bool, error) {
	parts, err := decode(value, seqCursorTag, 1)
	if err != nil || parts == nil {
		return 0, false, err
	}
	seq, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || seq <= 0 {
		return 0, false, fmt.Errorf("invalid cursor sequence")
	}
	return seq, true, nil
}

func encode(tag string, fields ...string) string {
	raw := tag + "|" + strings.Join(fields, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decode(value, tag string, fields int) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != fields+1 || parts[0] != tag {
		return nil, errMalformed
	}
	return parts[1:], nil
}
