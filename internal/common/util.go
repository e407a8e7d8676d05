package common

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// MakeRandTokenURLSafe generates a URL-safe random token from size random
// bytes, encoded with unpadded base64url. The resulting string contains only
// [A-Za-z0-9_-], so it can be placed in a URL path without escaping.
//
// Example:
//
//	t, err := MakeRandTokenURLSafe(32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(t) // e.g., "G2o7xJ1kQ...", 43 characters
//
// It returns an error if the random number generator fails.
func MakeRandTokenURLSafe(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// sizeUnits are the suffixes used by FormatFileSize, in 1024-step order.
var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatFileSize converts a byte count to a short human-readable string
// ("0B", "500.0B", "1.5KB", "2.0MB", ...). Units step by 1024.
func FormatFileSize(size int64) string {
	if size == 0 {
		return "0B"
	}
	v := float64(size)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f%s", v, sizeUnits[i])
}
