// Package source reads the watched JSON sources from the data directory and
// reports when they are created or rewritten.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/okian/bandboard/internal/domain/types"
	"github.com/okian/bandboard/pkg/metrics"
)

// Reader loads a source file as compacted raw JSON.
type Reader struct {
	dataDir string
}

// NewReader creates a Reader resolving sources against dataDir.
func NewReader(dataDir string) *Reader {
	return &Reader{dataDir: dataDir}
}

// DataDir returns the directory sources are resolved against.
func (r *Reader) DataDir() string { return r.dataDir }

// Read returns the content of src. Errors wrap ErrSourceNotFound,
// ErrSourceRead or ErrSourceParse.
func (r *Reader) Read(ctx context.Context, src types.SourceFile) (json.RawMessage, error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordSourceRead(src.Kind.String(), outcome, float64(time.Since(start).Microseconds())/1000)
	}()

	if err := ctx.Err(); err != nil {
		outcome = "read_error"
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, src.Name, err)
	}

	path := src.Path(r.dataDir)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			outcome = "not_found"
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		outcome = "read_error"
		metrics.RecordErrorByComponent("source", "read_error")
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, path, err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		outcome = "parse_error"
		metrics.RecordErrorByComponent("source", "parse_error")
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceParse, path, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

// Exists reports whether src is present in the data directory.
func (r *Reader) Exists(src types.SourceFile) bool {
	info, err := os.Stat(src.Path(r.dataDir))
	return err == nil && !info.IsDir()
}
