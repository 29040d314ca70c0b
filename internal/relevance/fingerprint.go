package relevance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DefaultFingerprintPrefix is how many leading bytes of page content take part
// in the fingerprint.
const DefaultFingerprintPrefix = 100

// Fingerprint is the content-addressed cache key of a classification request.
type Fingerprint string

// NewFingerprint derives the key from the page number and the first prefix
// bytes of content. The query is not part of the key.
func NewFingerprint(pageNo int, content string, prefix int) Fingerprint {
	if prefix > 0 && len(content) > prefix {
		content = content[:prefix]
	}
	sum := sha256.Sum256([]byte(content))
	return Fingerprint(fmt.Sprintf("%d-%s", pageNo, hex.EncodeToString(sum[:12])))
}

func (f Fingerprint) String() string { return string(f) }
