package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/bandboard/internal/domain/model"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o644
)

// WriteFile validates records and writes them to path with e. An empty list
// returns ErrNothingToExport and writes nothing.
func WriteFile(path string, e Exporter, records []model.CompetitionRecord) (err error) {
	if len(records) == 0 {
		return ErrNothingToExport
	}
	if err := Validate(records); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := e.Export(records, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
