package driver

import (
	"crypto/sha256"
	"fmt"
)

// Digest is a sha256 hash identifying file content in the caches.
type Digest [sha256.Size]byte

// HashBytes returns the digest of raw file content.
func HashBytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// CombineDigests: H(content || extra1 || extra2 ...). Extras уже в детерминированном порядке.
func CombineDigests(content Digest, extras ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range extras {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// cacheKey binds cached diagnostics to both the file content and the options
// that change analysis output. The bag cap truncates results, so two runs
// with different caps must not share an entry.
func cacheKey(content []byte, maxDiagnostics int) Digest {
	opts := fmt.Appendf(nil, "max=%d", maxDiagnostics)
	return CombineDigests(HashBytes(content), HashBytes(opts))
}
