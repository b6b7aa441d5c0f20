package consolidate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/okian/bandboard/internal/domain/assemble"
)

// CollectInputs expands inputs into the list of PDFs to process.
// Files are kept as given. Directories contribute their entries that follow
// the "YYYY-MM-DD <Competition>.pdf" naming pattern, sorted by name.
func CollectInputs(inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInputs, err)
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInputs, in, err)
		}
		var names []string
		for _, e := range entries {
			if e.Type().IsRegular() && assemble.MatchesNamingPattern(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			files = append(files, filepath.Join(in, n))
		}
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}
	return files, nil
}
