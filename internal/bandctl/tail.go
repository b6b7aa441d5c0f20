package bandctl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/okian/bandboard/internal/adapters/repository"
	"github.com/okian/bandboard/internal/adapters/stream"
	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/internal/domain/scoring"
)

// feedPrinter applies payloads to the store and reports each arrival.
type feedPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	store *repository.DataStore
}

func (p *feedPrinter) Apply(ctx context.Context, pl model.Payload) error {
	p.mu.Lock()
	fmt.Fprintf(p.out, "%s %d bytes\n", kindStyle.Render(string(pl.Kind)), len(pl.Data))
	p.mu.Unlock()
	return p.store.Apply(ctx, pl)
}

func (p *feedPrinter) printTrend(t scoring.Trend) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, RenderTrend(t))
}

func newTailCmd(opts *rootOptions) *cobra.Command {
	var (
		url     string
		caption string
		once    bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow a bandboard feed and print the band trend",
		Long: `Connect to a running bandboard server, keep the latest copy of every
source in memory and print the chosen caption's per-date average for the
configured bands whenever the data changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := scoring.Caption(caption)
			if _, ok := (scoring.BandRow{}).Value(c); !ok {
				return fmt.Errorf("unknown caption %q", caption)
			}
			if url == "" {
				url = feedURL(opts.cfg.Addr)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			agg := scoring.NewAggregator(scoring.WithBandNames(opts.cfg.BandNames))
			printer := &feedPrinter{out: cmd.OutOrStdout()}
			printer.store = repository.NewDataStore(repository.WithAggregator(func(_ context.Context, snap repository.Snapshot) {
				printer.printTrend(scoring.ComputeTrend(agg.Flatten(snap.Scores), c))
				if once {
					cancel()
				}
			}))

			var copts []stream.ClientOption
			if once {
				copts = append(copts, stream.WithReconnectDelay(0))
			}
			return stream.NewClient(url, printer, copts...).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Feed URL (default ws://localhost<addr>/ws from config)")
	cmd.Flags().StringVar(&caption, "caption", string(scoring.Overall), "Caption to follow: Overall, Music, Visual, Percussion, Guard")
	cmd.Flags().BoolVar(&once, "once", false, "Exit after the first trend is printed")
	return cmd
}

// feedURL derives the local feed URL from a listen address.
func feedURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "ws://" + addr + "/ws"
}
