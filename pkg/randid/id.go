// Package randid generates short random identifiers for temporary names.
package randid

import "math/rand/v2"

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a random lowercase alphanumeric string of length n.
// It is not suitable for secrets.
func Generate(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// TempName returns base with a random suffix, hidden with a leading dot,
// for use as a sibling temporary file of base.
func TempName(base string) string {
	return "." + base + "." + Generate(8)
}
