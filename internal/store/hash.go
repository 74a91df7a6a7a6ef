package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeFingerprint computes the stable per-symbol fingerprint of the
// glossary: a hash over (name, kind, signature, detail) used to detect
// semantic-level symbol change beyond the file's content hash.
func ComputeFingerprint(name, kind string, signature *string, detailJSON string) string {
	h := sha256.New()
	fmt.Fprintf(h, "name:%s\n", name)
	fmt.Fprintf(h, "kind:%s\n", kind)
	if signature != nil {
		fmt.Fprintf(h, "signature:%s\n", *signature)
	} else {
		fmt.Fprint(h, "signature:\n")
	}
	fmt.Fprintf(h, "detail:%s\n", detailJSON)
	return fmt.Sprintf("%x", h.Sum(nil))
}
