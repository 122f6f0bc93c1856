package referrals

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	codePrefixLength = 6
	codeSuffixLength = 4
	codeAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeGenerator produces a candidate referral code. Uniqueness is enforced by the store.
type CodeGenerator func(referrerID uuid.UUID, now time.Time) (string, error)

// GenerateReferralCode builds referrer prefix + base36 millis + random suffix.
func GenerateReferralCode(referrerID uuid.UUID, now time.Time) (string, error) {
	hexID := strings.ReplaceAll(referrerID.String(), "-", "")
	prefix := strings.ToUpper(hexID[:codePrefixLength])
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var suffix strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		suffix.WriteByte(codeAlphabet[n.Int64()])
	}
	return prefix + stamp + suffix.String(), nil
}

// NormalizeCode trims and upper-cases user supplied codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
