package captcha

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Source draws uniform integers in [0, n).
type Source interface {
	Intn(n int) (int, error)
}

type cryptoSource struct{}

// CryptoSource is backed by crypto/rand and safe for concurrent use.
var CryptoSource Source = cryptoSource{}

func (cryptoSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("captcha: invalid bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// between returns a value in the inclusive range [lo, hi].
func between(src Source, lo, hi int) (int, error) {
	v, err := src.Intn(hi - lo + 1)
	if err != nil {
		return 0, err
	}
	return lo + v, nil
}
