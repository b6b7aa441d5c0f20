package bandctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/bandboard/internal/consolidate"
	"github.com/okian/bandboard/internal/domain/table"
)

func newConsolidateCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		format string
		dryRun bool
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "consolidate [PDF or directory]...",
		Short: "Extract score tables from competition PDFs into one export",
		Long: `Extract the result rows of every competition PDF and write them as one
JSON (or YAML) array. Directories contribute files named
"YYYY-MM-DD <Competition Name>.pdf"; files given explicitly are always read.
With no arguments the current directory is scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			if output == "" {
				output = opts.cfg.ExportFile
			}

			var copts []consolidate.Option
			if opts.opener != nil {
				copts = append(copts, consolidate.WithOpener(opts.opener))
			}
			res, err := consolidate.Run(cmd.Context(), &consolidate.Config{
				Inputs: args,
				Output: output,
				Format: format,
				DryRun: dryRun,
			}, copts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprint(out, RenderSeasons(table.BuildSeasons(res.Competitions)))
			}
			for _, s := range res.Skipped {
				fmt.Fprintln(out, skipStyle.Render("skipped "+s.File+": "+s.Reason))
			}
			if dryRun {
				fmt.Fprintf(out, "%d competitions extracted (dry run, nothing written)\n", len(res.Competitions))
				return nil
			}
			fmt.Fprintf(out, "%d competitions written to %s\n", len(res.Competitions), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Export file (default from config export_file)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json or yaml")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and print without writing the export")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the extracted tables")
	return cmd
}
