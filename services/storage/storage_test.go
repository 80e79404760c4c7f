package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := GenerateKey("payment-proofs", "png", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(key, "payment-proofs/2026/03/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	require.NoError(t, s.Put(ctx, key, []byte("proof"), "image/png"))

	data, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "proof", string(data))

	url, err := s.SignedURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, url)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	// Cleaned against the root, so the file lands inside the storage dir
	require.NoError(t, s.Put(context.Background(), "../../etc/passwd", []byte("x"), "text/plain"))
	data, err := s.Get(context.Background(), "etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	assert.Error(t, s.Put(context.Background(), "", []byte("x"), "text/plain"))
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "ftp"})
	assert.Error(t, err)
}
