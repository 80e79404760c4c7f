package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealAndOpenSecret(t *testing.T) {
	sealed, salt, err := SealSecret("rzp_secret_value", "master-key")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "rzp_secret_value")

	plain, err := OpenSecret(sealed, salt, "master-key")
	require.NoError(t, err)
	assert.Equal(t, "rzp_secret_value", plain)
}

func TestOpenSecretWrongKey(t *testing.T) {
	sealed, salt, err := SealSecret("rzp_secret_value", "master-key")
	require.NoError(t, err)

	_, err = OpenSecret(sealed, salt, "other-key")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestSealSecretRequiresMasterKey(t *testing.T) {
	_, _, err := SealSecret("x", "")
	assert.ErrorIs(t, err, ErrMissingMasterKey)
}
