package session

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilnet/confighub/internal/kvstore"
)

const adminID = "999"

func newTestService(t *testing.T) (*Service, *kvstore.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := kvstore.NewMemory()
	return New(store, adminID, 24*time.Hour, logger), store
}

func TestService_CreateAndValidate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tok, err := svc.Create(ctx, "12345", false)
	require.NoError(t, err)
	assert.Len(t, tok, 64)

	sess, err := svc.Validate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "12345", sess.UserID)
	assert.False(t, sess.IsAdmin)
}

func TestService_ValidateUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Validate(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestService_ExpiredSessionIsLazilyDeleted(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	tok, err := svc.Create(ctx, "12345", false)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, err = svc.Validate(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// просроченная запись удалена при чтении
	_, found, err := store.Get(ctx, "session:user:"+tok)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestService_AdminSessionNamespaceIsDistinct(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	tok, err := svc.Create(ctx, adminID, true)
	require.NoError(t, err)

	_, found, err := store.Get(ctx, "session:admin:"+tok)
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = store.Get(ctx, "session:user:"+tok)
	require.NoError(t, err)
	assert.False(t, found)

	sess, err := svc.Validate(ctx, tok)
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin)
}

func TestService_AdminRevokedByConfigChange(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := kvstore.NewMemory()

	svc := New(store, adminID, 24*time.Hour, logger)
	tok, err := svc.Create(ctx, adminID, true)
	require.NoError(t, err)

	// тот же store, но администратором назначен другой аккаунт
	rotated := New(store, "111", 24*time.Hour, logger)
	_, err = rotated.Validate(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tok, err := svc.Create(ctx, "12345", false)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tok))

	_, err = svc.Validate(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
