package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks an HMAC-SHA256 signature over the exact raw request
// body bytes. The supplied header may be a bare hex digest or carry a
// "sha256=" prefix; both forms are accepted to tolerate provider formatting
// variance. A missing header or empty secret is a failure, never a skip.
//
// Callers must pass the body bytes as received on the wire: re-serializing a
// parsed JSON document changes key order and whitespace and breaks the HMAC.
func VerifySignature(body []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	supplied := strings.TrimPrefix(signatureHeader, "sha256=")
	return hmac.Equal([]byte(supplied), []byte(expected))
}
