package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyCodeRequest struct {
	Code  string `json:"code" validate:"required,otp"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

func TestCustomTagsReportJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.ValidateStruct(verifyCodeRequest{Code: "12ab56", Phone: "12"})
	require.Error(t, err)

	fields := FormatValidationErrors(err)
	assert.Equal(t, "Code must be 6 digits", fields["code"])
	assert.Equal(t, "Invalid phone number", fields["phone"])

	assert.NoError(t, v.ValidateStruct(verifyCodeRequest{Code: "012345", Phone: "+919876543210"}))
}

func TestValidatePassword(t *testing.T) {
	ok, problems := ValidatePassword("short")
	assert.False(t, ok)
	assert.Len(t, problems, 2)

	ok, _ = ValidatePassword("longenough1")
	assert.True(t, ok)
}
