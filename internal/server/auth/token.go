package auth

import (
	"encoding/hex"

	"github.com/dmitrijs2005/taskboard/internal/common"
)

// TokenLength is the length of an encoded session token (hex digits).
const TokenLength = common.SessionTokenBytes * 2

// GenerateSessionToken returns a fresh hex-encoded token carrying 256 bits
// of randomness.
func GenerateSessionToken() (string, error) {
	return common.MakeRandHexString(common.SessionTokenBytes)
}

// WellFormedToken reports whether token could have come from
// GenerateSessionToken. Anything else cannot match a stored session.
func WellFormedToken(token string) bool {
	if len(token) != TokenLength {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
