package generator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// OrderNumber returns "ORD-" followed by 10 upper-case hex characters of a random UUID
func OrderNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:10])
}

// InvoiceNumber returns "INV-<yyyymm>-<ULID>"
func InvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.UTC().Format("200601"), newULID(now))
}

// CertificateNumber returns "CERT-<ULID>"
func CertificateNumber(now time.Time) string {
	return "CERT-" + newULID(now)
}

// TransactionID returns a unique payment transaction identifier
func TransactionID(now time.Time) string {
	return "TXN" + newULID(now)
}

// NumericCode returns a uniformly random code of the given number of digits,
// zero padded
func NumericCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil) // 10^digits
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// Token returns a URL safe random token (password reset links)
func Token() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func newULID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now.UTC()), entropy).String()
}
