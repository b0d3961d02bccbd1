package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalManager_RoundTrip(t *testing.T) {
	m := NewLocalManager(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, m.PutSecret(ctx, "pos-gateway/fastpay/secret_key", "hunter2"))

	value, err := m.GetSecret(ctx, "pos-gateway/fastpay/secret_key")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestLocalManager_GetSecret_NotFound(t *testing.T) {
	m := NewLocalManager(t.TempDir(), zap.NewNop())

	_, err := m.GetSecret(context.Background(), "pos-gateway/fastpay/missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}

func TestLocalManager_GetSecret_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	m := NewLocalManager(dir, zap.NewNop())

	path := filepath.Join(dir, "pos-gateway", "fastpay", "secret_key")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("hunter2\n"), 0o600))

	value, err := m.GetSecret(context.Background(), "pos-gateway/fastpay/secret_key")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestLocalManager_PutSecret_Overwrites(t *testing.T) {
	m := NewLocalManager(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, m.PutSecret(ctx, "pos-gateway/paymeqr/key", "old"))
	require.NoError(t, m.PutSecret(ctx, "pos-gateway/paymeqr/key", "new"))

	value, err := m.GetSecret(ctx, "pos-gateway/paymeqr/key")
	require.NoError(t, err)
	assert.Equal(t, "new", value)
}

func TestLocalManager_DeleteSecret(t *testing.T) {
	m := NewLocalManager(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, m.PutSecret(ctx, "pos-gateway/clickpass/secret_key", "x"))
	require.NoError(t, m.DeleteSecret(ctx, "pos-gateway/clickpass/secret_key"))

	_, err := m.GetSecret(ctx, "pos-gateway/clickpass/secret_key")
	assert.Error(t, err)
}

func TestLocalManager_DeleteSecret_MissingIsNotAnError(t *testing.T) {
	m := NewLocalManager(t.TempDir(), zap.NewNop())

	assert.NoError(t, m.DeleteSecret(context.Background(), "pos-gateway/fastpay/never_existed"))
}
