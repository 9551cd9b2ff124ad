package todo

import (
	"crypto/rand"
)

// IDLength is the length of generated todo IDs.
const IDLength = 16

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewID returns a 16-character random alphanumeric token. The token space is
// large enough (62^16) that IDs are treated as globally unique across users;
// the aggregation view enforces that assumption explicitly.
func NewID() string {
	buf := make([]byte, IDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
