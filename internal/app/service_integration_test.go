package service_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bandboard/internal/adapters/repository"
	"github.com/okian/bandboard/internal/adapters/stream"
	service "github.com/okian/bandboard/internal/app"
)

func scoresFile(compName string, overall float64) string {
	cells := make([]string, 24)
	for i := range cells {
		cells[i] = "1"
	}
	cells[22] = fmt.Sprintf("%g", overall)
	return fmt.Sprintf(`[{"dateStr":"2024-09-14","compName":%q,"rows":[{"school":"Orem High","cells":[%s]}]}]`,
		compName, strings.Join(cells, ","))
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service behind a WebSocket endpoint and a live data directory", t, func() {
		dir := t.TempDir()
		write := func(name, content string) {
			So(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600), ShouldBeNil)
		}
		write("Data Collection.json", scoresFile("Bingham Invitational", 71.5))
		write("AdjudicationSheets.json", `{"2024-09-14":{"music":"clean"}}`)

		svc := service.New(service.WithDataDir(dir))
		So(svc.Start(context.Background()), ShouldBeNil)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := stream.Upgrade(w, r)
			if err != nil {
				return
			}
			_ = svc.ServeSession(r.Context(), conn)
		}))
		defer srv.Close()
		defer svc.Stop()

		store := repository.NewDataStore()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		client := stream.NewClient(url, store, stream.WithReconnectDelay(0))
		done := make(chan error, 1)
		go func() { done <- client.Run(ctx) }()

		Convey("When the client connects", func() {
			ready := waitUntil(store.Ready)

			Convey("Then the store becomes ready from the initial load", func() {
				So(ready, ShouldBeTrue)
				snap := store.Snapshot()
				So(snap.Scores, ShouldHaveLength, 1)
				So(snap.Scores[0].CompName, ShouldEqual, "Bingham Invitational")
				So(snap.Comments, ShouldBeEmpty)
			})

			Convey("And a changed scores file is pushed to the client", func() {
				So(ready, ShouldBeTrue)
				write("Data Collection.json", scoresFile("Region Championship", 80.25))

				updated := waitUntil(func() bool {
					snap := store.Snapshot()
					return len(snap.Scores) == 1 && snap.Scores[0].CompName == "Region Championship"
				})
				So(updated, ShouldBeTrue)
				So(store.Snapshot().Scores[0].Rows[0].Cells[22], ShouldEqual, 80.25)
			})

			Convey("And a newly added comments file is pushed to the client", func() {
				So(ready, ShouldBeTrue)
				write("2025_judge_comments.json", `[{"comment":"great drill","judge":"A","caption":"Visual"}]`)

				added := waitUntil(func() bool { return len(store.Snapshot().Comments) == 1 })
				So(added, ShouldBeTrue)
				So(store.Snapshot().Comments[0].Caption, ShouldEqual, "Visual")
			})

			Convey("And stopping the service disconnects the client", func() {
				So(ready, ShouldBeTrue)
				svc.Stop()

				disconnected := false
				select {
				case <-done:
					disconnected = true
				case <-time.After(3 * time.Second):
				}
				So(disconnected, ShouldBeTrue)
				So(svc.ActiveSessions(), ShouldEqual, 0)
			})
		})
	})
}
