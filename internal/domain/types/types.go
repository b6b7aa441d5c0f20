// Package types contains the fixed set of JSON sources and the payload kinds they map to.
package types

import (
	"path/filepath"
)

// Kind tags a payload with the data it carries.
type Kind string

// Payload kinds, one per source file.
const (
	KindScores             Kind = "scores"
	KindAdjudication       Kind = "adjudication"
	KindComments           Kind = "comments"
	KindHistoricalComments Kind = "historical_comments"
)

// Kinds returns every known kind in declared order.
func Kinds() []Kind {
	return []Kind{KindScores, KindAdjudication, KindComments, KindHistoricalComments}
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindScores, KindAdjudication, KindComments, KindHistoricalComments:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// SourceFile binds a file name inside the data directory to its payload kind.
type SourceFile struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Path resolves the source against dataDir.
func (s SourceFile) Path(dataDir string) string {
	return filepath.Join(dataDir, s.Name)
}

var sources = [...]SourceFile{
	{Name: "Data Collection.json", Kind: KindScores},
	{Name: "AdjudicationSheets.json", Kind: KindAdjudication},
	{Name: "2025_judge_comments.json", Kind: KindComments},
	{Name: "historical_judge_comments.json", Kind: KindHistoricalComments},
}

// Sources returns a copy of the watched sources in declared order.
func Sources() []SourceFile {
	out := make([]SourceFile, len(sources))
	copy(out, sources[:])
	return out
}

// Lookup finds the source with the given base name. Names are case-sensitive.
func Lookup(name string) (SourceFile, bool) {
	for _, s := range sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceFile{}, false
}
