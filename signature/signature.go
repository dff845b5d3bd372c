// Package signature authenticates webhook deliveries signed with a shared
// secret using the X-Hub-Signature-256 scheme.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Prefix precedes the hex digest in the signature header.
const Prefix = "sha256="

// Header is the request header carrying the signature.
const Header = "X-Hub-Signature-256"

// Verifier checks HMAC-SHA256 signatures over raw request bodies.
// A Verifier without a secret runs in open mode and accepts everything;
// that is an explicit fallback for environments with no secret configured.
type Verifier struct {
	secret []byte
}

func New(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool { return v != nil && len(v.secret) > 0 }

// Sign returns the header value for body.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header is the signature of body. body must be the
// exact bytes received, before any decoding.
func (v *Verifier) Verify(body []byte, header string) bool {
	if !v.Enabled() {
		return true
	}
	ok, _ := compareDigest([]byte(v.Sign(body)), []byte(header))
	return ok
}

// compareDigest reports whether got equals expected. Every byte of expected
// is visited no matter where the first difference is; the number of bytes
// visited is returned alongside the result.
func compareDigest(expected, got []byte) (bool, int) {
	var diff byte
	visited := 0
	for i := range expected {
		var g byte
		if i < len(got) {
			g = got[i]
		}
		diff |= expected[i] ^ g
		visited++
	}
	sameLen := subtle.ConstantTimeEq(int32(len(expected)), int32(len(got)))
	return subtle.ConstantTimeByteEq(diff, 0)&sameLen == 1, visited
}
