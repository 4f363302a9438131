package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/portfolio-api/internal/core/domain"
)

func newTestRepo(t *testing.T, opts ...ContactOption) (*ContactRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.json")
	repo, err := NewContactRepository(path, zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo, path
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestContactRepository_InitialisesEmptyArray(t *testing.T) {
	_, path := newTestRepo(t)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))
}

func TestContactRepository_AppendAndList(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id1, err := repo.Append(ctx, domain.Contact{Name: "Jane Doe", Email: "jane@example.com", Message: "Hi"})
	require.NoError(t, err)
	id2, err := repo.Append(ctx, domain.Contact{Name: "John Roe", Email: "john@example.com", Message: "Hello"})
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, id1, list[0].ID)
	require.Equal(t, "Jane Doe", list[0].Name)
	require.Equal(t, id2, list[1].ID)
}

func TestContactRepository_SameMillisecondIDsStayUnique(t *testing.T) {
	repo, _ := newTestRepo(t, WithContactClock(fixedClock(1_700_000_000_000)))
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		id, err := repo.Append(ctx, domain.Contact{Name: "N", Email: "n@example.com", Message: "m"})
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestContactRepository_ConcurrentAppendsAreNotLost(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, domain.Contact{Name: "N", Email: "n@example.com", Message: "m"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, n)
}

func TestContactRepository_Delete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"A", "B", "C"} {
		id, err := repo.Append(ctx, domain.Contact{Name: name})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	remaining, err := repo.Delete(ctx, ids[1])
	require.NoError(t, err)
	require.Equal(t, 2, remaining)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, ids[0], list[0].ID)
	require.Equal(t, ids[2], list[1].ID)
}

func TestContactRepository_DeleteUnknownLeavesStoreUnchanged(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, domain.Contact{Name: "A"})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = repo.Delete(ctx, 42)
	require.ErrorIs(t, err, domain.ErrContactNotFound)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestContactRepository_DeleteAll(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, domain.Contact{Name: "A"})
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	deleted, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestContactRepository_CorruptFileTreatedAsEmpty(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = repo.Append(ctx, domain.Contact{Name: "A"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var stored []domain.Contact
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
}

func TestContactRepository_RawJSON(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, domain.Contact{Name: "A", UserAgent: "curl"})
	require.NoError(t, err)

	raw, err := repo.RawJSON(ctx)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), `"userAgent": "curl"`))

	require.NoError(t, os.Remove(path))
	_, err = repo.RawJSON(ctx)
	require.ErrorIs(t, err, domain.ErrExportNotFound)
}

func TestContactRepository_ClosedStoreRejectsOperations(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.Close()

	_, err := repo.List(context.Background())
	require.Error(t, err)
}
