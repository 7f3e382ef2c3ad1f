package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// OneTimeToken is a random token mailed to a user. Only Hash is stored.
type OneTimeToken struct {
	Plain  string
	Hash   []byte
	Expiry time.Time
}

// NewOneTimeToken returns 20 random bytes, hex encoded, valid for ttl.
func NewOneTimeToken(ttl time.Duration) (*OneTimeToken, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	plain := hex.EncodeToString(b)
	return &OneTimeToken{
		Plain:  plain,
		Hash:   HashToken(plain),
		Expiry: time.Now().Add(ttl),
	}, nil
}

func HashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}
