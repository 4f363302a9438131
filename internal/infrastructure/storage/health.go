package storage

import (
	"context"
	"fmt"
	"os"
)

// DirChecker reports whether the data directory accepts writes.
type DirChecker struct {
	dir string
}

func NewDirChecker(dir string) *DirChecker {
	return &DirChecker{dir: dir}
}

func (d *DirChecker) Name() string { return "storage" }

func (d *DirChecker) Check(_ context.Context) error {
	f, err := os.CreateTemp(d.dir, ".ready-")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
