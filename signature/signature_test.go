package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignMatchesHMAC(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, New("s3cret").Sign(body))
}

func TestVerifyRoundTrip(t *testing.T) {
	secrets := []string{"a", "s3cret", "a much longer shared secret with spaces"}
	bodies := [][]byte{{}, []byte("x"), []byte(`{"zen":"Keep it logically awesome."}`)}
	for _, s := range secrets {
		v := New(s)
		for _, b := range bodies {
			assert.True(t, v.Verify(b, v.Sign(b)), "secret %q body %q", s, b)
		}
	}
}

func TestVerifyRejectsSingleBitMutations(t *testing.T) {
	v := New("s3cret")
	body := []byte(`{"ref":"refs/heads/main"}`)
	sig := v.Sign(body)

	for i := range body {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= 1 << bit
			require.False(t, v.Verify(mutated, sig), "body byte %d bit %d", i, bit)
		}
	}
	for i := range sig {
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(sig)
			mutated[i] ^= 1 << bit
			require.False(t, v.Verify(body, string(mutated)), "signature byte %d bit %d", i, bit)
		}
	}
}

func TestVerifyRejectsMalformedHeaders(t *testing.T) {
	v := New("s3cret")
	body := []byte("payload")
	sig := v.Sign(body)

	for _, h := range []string{"", "sha256=", sig[len(Prefix):], "sha1=" + sig[len(Prefix):], sig + "00", sig[:len(sig)-1]} {
		assert.False(t, v.Verify(body, h), "header %q", h)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	body := []byte("payload")
	assert.False(t, New("one").Verify(body, New("two").Sign(body)))
}

func TestOpenModeAcceptsEverything(t *testing.T) {
	v := New("")
	assert.False(t, v.Enabled())
	assert.True(t, v.Verify([]byte("anything"), ""))
	assert.True(t, v.Verify([]byte("anything"), "sha256=bogus"))
}

func TestCompareDigestVisitsFullLength(t *testing.T) {
	expected := []byte(New("k").Sign([]byte("body")))
	n := len(expected)

	ok, visited := compareDigest(expected, expected)
	require.True(t, ok)
	require.Equal(t, n, visited)

	for pos := 0; pos < n; pos++ {
		got := append([]byte(nil), expected...)
		got[pos] ^= 0xff
		ok, visited := compareDigest(expected, got)
		assert.False(t, ok)
		assert.Equal(t, n, visited, "mismatch at %d stopped early", pos)
	}

	ok, visited = compareDigest(expected, expected[:3])
	assert.False(t, ok)
	assert.Equal(t, n, visited)
}
