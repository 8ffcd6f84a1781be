package session

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// generatePublicCode derives the short join code players share out loud:
// five digits hashed off the secret session key.
func generatePublicCode(secret string) string {
	h := md5.New()
	h.Write([]byte(secret))
	sum := h.Sum(nil)
	number := binary.BigEndian.Uint32(sum[:4])
	return fmt.Sprintf("%05d", number%100000)
}
