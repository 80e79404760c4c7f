package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPaymentConfigFallsBackToEnvironment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	creds, err := env.configs.RazorpayCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, testRazorpayKeyID, creds.KeyID)
	assert.Equal(t, testRazorpaySecret, creds.KeySecret)

	public, err := env.configs.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, testRazorpayKeyID, public.RazorpayKeyID)
	assert.True(t, public.RazorpayEnabled)
}

func TestPaymentConfigSealsStoredSecret(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	testMode := true

	cfg, err := env.configs.Update(ctx, admin.ID, PaymentConfigInput{
		UPIID:             strPtr(" codelearn@upi "),
		RazorpayKeyID:     strPtr("rzp_live_stored"),
		RazorpayKeySecret: strPtr("stored-secret"),
		RazorpayTestMode:  &testMode,
	})
	require.NoError(t, err)
	assert.Equal(t, "codelearn@upi", cfg.UPIID)
	assert.NotEmpty(t, cfg.RazorpayKeySecretCipher)
	assert.NotContains(t, cfg.RazorpayKeySecretCipher, "stored-secret")

	creds, err := env.configs.RazorpayCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rzp_live_stored", creds.KeyID)
	assert.Equal(t, "stored-secret", creds.KeySecret)

	public, err := env.configs.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "codelearn@upi", public.UPIID)
	assert.Equal(t, "rzp_live_stored", public.RazorpayKeyID)
	assert.True(t, public.RazorpayTestMode)

	// An empty secret clears the stored one and the environment applies again
	_, err = env.configs.Update(ctx, admin.ID, PaymentConfigInput{RazorpayKeySecret: strPtr("")})
	require.NoError(t, err)
	creds, err = env.configs.RazorpayCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, testRazorpaySecret, creds.KeySecret)

	// A different master key cannot open the sealed secret
	_, err = env.configs.Update(ctx, admin.ID, PaymentConfigInput{RazorpayKeySecret: strPtr("stored-secret")})
	require.NoError(t, err)
	other := NewPaymentConfigService(env.db, "another-master-key", RazorpayCredentials{})
	_, err = other.RazorpayCredentials(ctx)
	assert.Error(t, err)
}
