package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint computes the content hash used as a cache key.
// Content is NFKC-normalized and line endings are canonicalized first, so
// cosmetically different encodings of the same section share one cache
// entry. The fingerprint changes whenever the section content changes,
// which is what invalidates stale cache entries.
func Fingerprint(content string) string {
	normalized := norm.NFKC.String(content)
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
