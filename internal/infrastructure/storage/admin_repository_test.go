package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/folio/portfolio-api/internal/core/domain"
)

func TestAdminRepository_LoadMissing(t *testing.T) {
	repo := NewAdminRepository(filepath.Join(t.TempDir(), "admin.json"))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrAdminNotFound)
}

func TestAdminRepository_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "admin.json")
	repo := NewAdminRepository(path)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	err := repo.Save(context.Background(), &domain.AdminCredentials{
		Username:     "admin",
		PasswordHash: "$2a$12$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
		UpdatedBy:    "admin",
		UpdatedFrom:  "10.0.0.1",
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "admin", got.Username)
	require.Equal(t, "$2a$12$hash", got.PasswordHash)
	require.True(t, got.UpdatedAt.Equal(now))
	require.Equal(t, "10.0.0.1", got.UpdatedFrom)
}

func TestAdminRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))

	_, err := NewAdminRepository(path).Load(context.Background())
	require.ErrorIs(t, err, domain.ErrPersistence)
}
