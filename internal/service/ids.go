package service

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// suffixSpace is 36^6, the number of distinct 6-char base36 suffixes.
const suffixSpace = 2176782336

// NewID is base36 milliseconds since the epoch followed by six random
// base36 characters, so two records stamped in the same millisecond still
// differ.
func NewID(now time.Time) string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) % suffixSpace
	suffix := strconv.FormatUint(n, 36)
	if len(suffix) < 6 {
		suffix = strings.Repeat("0", 6-len(suffix)) + suffix
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + suffix
}

// Timestamp formats t as an ISO 8601 UTC instant with milliseconds.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
