// Package shortid generates the random public identifiers used for pastes.
package shortid

import (
	"crypto/rand"
	"math/big"
)

// Alphabet is the symbol set for short IDs: upper, lower and digits, matching
// the 62^8 identifier space pastes are addressed in.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Length is the fixed length of a paste short ID.
const Length = 8

// Generator produces cryptographically random short IDs.
type Generator struct {
	alphabet string
	length   int
}

// New returns a Generator with the default alphabet and length.
func New() *Generator {
	return &Generator{alphabet: Alphabet, length: Length}
}

// NewWithAlphabet returns a Generator with a custom alphabet, falling back to
// the default when empty.
func NewWithAlphabet(length int, alphabet string) *Generator {
	if alphabet == "" {
		alphabet = Alphabet
	}
	if length <= 0 {
		length = Length
	}
	return &Generator{alphabet: alphabet, length: length}
}

// Generate returns a new random short ID.
func (g *Generator) Generate() (string, error) {
	out := make([]byte, g.length)
	max := big.NewInt(int64(len(g.alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = g.alphabet[n.Int64()]
	}
	return string(out), nil
}
