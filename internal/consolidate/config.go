package consolidate

// Config holds configuration for a consolidation run.
type Config struct {
	Inputs []string // PDF files or directories holding them
	Output string   // Export file path
	Format string   // Export format: json or yaml
	DryRun bool     // Skip writing the export file
}
