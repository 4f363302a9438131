package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// AdminRepository keeps the singleton admin account in a JSON file.
type AdminRepository struct {
	path string
	mu   sync.Mutex
}

func NewAdminRepository(path string) *AdminRepository {
	return &AdminRepository{path: path}
}

func (r *AdminRepository) Load(_ context.Context) (*domain.AdminCredentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, fmt.Errorf("read admin credentials: %w: %w", domain.ErrPersistence, err)
	}

	var creds domain.AdminCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode admin credentials: %w: %w", domain.ErrPersistence, err)
	}
	if creds.Username == "" || creds.PasswordHash == "" {
		return nil, fmt.Errorf("admin credentials incomplete: %w", domain.ErrPersistence)
	}
	return &creds, nil
}

func (r *AdminRepository) Save(_ context.Context, creds *domain.AdminCredentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode admin credentials: %w: %w", domain.ErrPersistence, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write admin credentials: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}
