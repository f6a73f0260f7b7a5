package usecase

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
)

// newPin draws a uniform integer in [PinMin, PinMax] from rnd.
func newPin(rnd io.Reader) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}

	n, err := rand.Int(rnd, big.NewInt(entity.PinMax-entity.PinMin+1))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+entity.PinMin, 10), nil
}

// wellFormedPin reports whether pin could have been issued at all.
func wellFormedPin(pin string) bool {
	if len(pin) != 4 {
		return false
	}

	n, err := strconv.Atoi(pin)
	return err == nil && n >= entity.PinMin && n <= entity.PinMax
}

// lockoutMinutes renders the lockout window for user-facing messages.
func lockoutMinutes(p entity.Policy) int {
	return int(p.Lockout / time.Minute)
}
