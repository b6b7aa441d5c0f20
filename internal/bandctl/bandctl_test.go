package bandctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/bandboard/internal/adapters/source"
	"github.com/okian/bandboard/internal/adapters/stream"
	"github.com/okian/bandboard/internal/consolidate"
	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/internal/domain/scoring"
	"github.com/okian/bandboard/internal/domain/table"
	"github.com/okian/bandboard/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func cells(base float64) []float64 {
	out := make([]float64, model.CellCount)
	for i := range out {
		out[i] = base + float64(i)
	}
	return out
}

func TestRenderSeasons(t *testing.T) {
	records := []model.CompetitionRecord{
		{DateStr: "2024-09-14", CompName: "Bingham Invitational", Rows: []model.RowRecord{
			{School: "Orem High", Cells: cells(60.5)},
			{School: "12.5 13.0", Cells: cells(1)},
		}},
		{DateStr: "2025-09-13", CompName: "Davis Classic", Rows: []model.RowRecord{
			{School: "Timpview", Cells: cells(70)},
		}},
	}

	out := RenderSeasons(table.BuildSeasons(records))

	assert.Contains(t, out, "Season 2024")
	assert.Contains(t, out, "Season 2025")
	assert.Contains(t, out, "Bingham Invitational – 2024-09-14")
	assert.Contains(t, out, "Orem High")
	assert.Contains(t, out, "60.500")
	assert.Contains(t, out, "Timpview")
	assert.NotContains(t, out, "12.5 13.0")
	assert.Less(t, strings.Index(out, "Season 2024"), strings.Index(out, "Season 2025"))
}

func TestRenderTrend(t *testing.T) {
	out := RenderTrend(scoring.Trend{
		Caption: scoring.Music,
		Labels:  []string{"2024-09-14", "2024-10-05"},
		Data:    []float64{70.25, 72},
	})

	assert.Contains(t, out, "Music trend")
	assert.Contains(t, out, "2024-09-14")
	assert.Contains(t, out, "70.250")
	assert.Contains(t, out, "72.000")
}

func TestFeedURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":3000", "ws://localhost:3000/ws"},
		{"scores.local:8080", "ws://scores.local:8080/ws"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, feedURL(tt.addr))
		})
	}
}

// pdfDoc is a one-page document whose fragments form a single score row.
type pdfDoc struct{ frags []model.TextFragment }

func (d pdfDoc) NumPages() int                                   { return 1 }
func (d pdfDoc) PageFragments(int) ([]model.TextFragment, error) { return d.frags, nil }
func (d pdfDoc) Close() error                                    { return nil }

func rowOpener(path string) (consolidate.Document, error) {
	frags := []model.TextFragment{{Text: "Orem High", X: 0, Y: 500, Height: 10}}
	for i, v := range cells(60) {
		frags = append(frags, model.TextFragment{
			Text:   strconv.FormatFloat(v, 'f', -1, 64),
			X:      float64(20 + i*5),
			Y:      500,
			Height: 10,
		})
	}
	return pdfDoc{frags: frags}, nil
}

func runCmd(ctx context.Context, t *testing.T, opener consolidate.Opener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(&rootOptions{opener: opener})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func TestConsolidateCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2024-09-14 Bingham Invitational.pdf", "2024-10-05 State Finals.pdf", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	output := filepath.Join(t.TempDir(), "consolidated_scores.json")

	out, err := runCmd(context.Background(), t, rowOpener, "consolidate", dir, "--output", output, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "Season 2024")
	assert.Contains(t, out, "State Finals – 2024-10-05")
	assert.Contains(t, out, "2 competitions written to "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var got []model.CompetitionRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Bingham Invitational", got[0].CompName)
	assert.Equal(t, "State Finals", got[1].CompName)
}

func TestConsolidateCommand_DryRunAndErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-09-14 Bingham Invitational.pdf"), []byte("x"), 0o600))
	output := filepath.Join(t.TempDir(), "out.yaml")

	out, err := runCmd(context.Background(), t, rowOpener, "consolidate", dir, "-o", output, "-f", "yaml", "--dry-run", "-q")
	require.NoError(t, err)
	assert.NotContains(t, out, "Season 2024")
	assert.Contains(t, out, "dry run")
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))

	_, err = runCmd(context.Background(), t, rowOpener, "consolidate", t.TempDir())
	require.ErrorIs(t, err, consolidate.ErrNoInputs)

	_, err = runCmd(context.Background(), t, rowOpener, "consolidate", dir, "--format", "csv")
	require.Error(t, err)
}

func scoresJSON(overall float64) string {
	cs := make([]string, model.CellCount)
	for i := range cs {
		cs[i] = "1"
	}
	cs[22] = strconv.FormatFloat(overall, 'f', -1, 64)
	return fmt.Sprintf(`[{"dateStr":"2024-09-14","compName":"Bingham","rows":[{"school":"Orem High","cells":[%s]}]}]`,
		strings.Join(cs, ","))
}

func TestTailCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Data Collection.json"), []byte(scoresJSON(78.5)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AdjudicationSheets.json"), []byte(`{}`), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := stream.Upgrade(w, r)
		if err != nil {
			return
		}
		_ = stream.NewSession(conn, source.NewReader(dir), nil).Run(r.Context())
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	out, err := runCmd(ctx, t, nil, "tail", "--url", url, "--once")
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "tail did not stop after the first trend")

	assert.Contains(t, out, "scores")
	assert.Contains(t, out, "adjudication")
	assert.Contains(t, out, "Overall trend")
	assert.Contains(t, out, "78.500")
}

func TestTailCommand_UnknownCaption(t *testing.T) {
	_, err := runCmd(context.Background(), t, nil, "tail", "--caption", "Brass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown caption")
}
