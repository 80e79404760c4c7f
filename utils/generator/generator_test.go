package generator

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-F]{10}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := OrderNumber()
		require.Regexp(t, pattern, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 95)
}

func TestInvoiceNumberCarriesMonth(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	n := InvoiceNumber(now)
	assert.True(t, strings.HasPrefix(n, "INV-202603-"), n)
	assert.Len(t, n, len("INV-202603-")+26)
}

func TestNumericCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NumericCode(6)
		require.NoError(t, err)
		require.Regexp(t, `^[0-9]{6}$`, code)
	}
}
