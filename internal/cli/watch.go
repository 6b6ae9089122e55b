package cli

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/enrich"
	sio "github.com/matzehuels/synthroute/pkg/io"
	"github.com/matzehuels/synthroute/pkg/live"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/route"
	"github.com/matzehuels/synthroute/pkg/session"
)

// watchCommand creates the watch command, which subscribes to a live room
// and keeps an elements file in sync with the documents pushed to it.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		url        string
		room       string
		from       string
		output     string
		snapshot   string
		skipEnrich bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a live room and export every pushed graph",
		Long: `Follow a live room and export every pushed graph.

Each document uploaded to the room replaces the previous one. It is
enriched in the background; when a newer document arrives first, the older
result is dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if url == "" {
				url = strings.TrimSuffix(c.Config.APIURL, "/") + "/ws"
			}
			format, err := normalize.ParseFormat(from)
			if err != nil {
				return err
			}
			client, err := live.NewClient(url, c.Logger)
			if err != nil {
				return err
			}
			client.RoomID = room
			client.Format = format

			var enricher *enrich.Enricher
			if !skipEnrich {
				cc, err := c.newCache(ctx)
				if err != nil {
					return err
				}
				defer cc.Close()
				enricher = enrich.New(c.newChem(cc), c.Logger)
			}

			sess := session.New(enricher, c.Logger)
			if err := sess.SetEnrichOptions(c.Config.EnrichOptions()); err != nil {
				return err
			}
			sess.SetTransform(c.Config.TransformOptions())

			w := newWatcher(sess, output, c.Logger)
			w.snapshot = snapshot
			printInfo("Watching %s", StyleLink.Render(client.URL))
			err = client.Run(ctx, w)
			w.wait()
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "hub websocket URL (default: <api-url>/ws)")
	cmd.Flags().StringVar(&room, "room", "", "room to join (default: assigned by the hub)")
	cmd.Flags().StringVar(&from, "from", "", "source format of pushed documents")
	cmd.Flags().StringVarP(&output, "output", "o", "live.elements.json", "elements file to keep updated")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "also keep a session snapshot (document, elements, generations) at this path")
	cmd.Flags().BoolVar(&skipEnrich, "skip-enrich", false, "export without depictions")
	return cmd
}

// watcher implements [live.Handler] on top of a session.
type watcher struct {
	sess     *session.Session
	output   string
	snapshot string
	logger   *log.Logger

	wg sync.WaitGroup
	mu sync.Mutex // serializes exports
}

func newWatcher(sess *session.Session, output string, logger *log.Logger) *watcher {
	return &watcher{sess: sess, output: output, logger: logger}
}

func (w *watcher) Room(_ context.Context, roomID string) {
	w.sess.SetRoomID(roomID)
	printSuccess("Joined room %s", StyleHighlight.Render(roomID))
	printNextStep("Push a graph", "curl -X POST '<api-url>/upload_json_body?room_id="+roomID+"' -d @document.json")
}

func (w *watcher) Graph(ctx context.Context, roomID string, doc *route.Document, report *normalize.Report) {
	if report != nil && report.Skipped() > 0 {
		w.logger.Warn("skipped malformed items", "room", roomID, "count", report.Skipped())
	}
	if err := w.sess.Load(doc); err != nil {
		w.logger.Error("graph rejected", "room", roomID, "error", err)
		return
	}
	printInfo("Graph received")
	printStats(docStats(doc))
	w.export()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		res, err := w.sess.Enrich(ctx)
		switch {
		case stderrors.Is(err, session.ErrStale):
			w.logger.Debug("enrichment superseded", "room", roomID)
			return
		case err != nil:
			w.logger.Error("enrichment failed", "room", roomID, "error", err)
			return
		}
		for _, f := range res.Failures {
			w.logger.Warn("depiction failed", "detail", f.String())
		}
		w.export()
	}()
}

// export writes the current elements of the session, and the snapshot when
// one is configured.
func (w *watcher) export() {
	w.mu.Lock()
	defer w.mu.Unlock()
	res := w.sess.Elements()
	if err := sio.ExportElements(w.output, res.Elements); err != nil {
		w.logger.Error("export failed", "path", w.output, "error", err)
		return
	}
	w.logger.Debug("exported elements", "path", w.output, "count", len(res.Elements))

	if w.snapshot == "" {
		return
	}
	if err := sio.ExportJSON(w.snapshot, w.sess.Snapshot()); err != nil {
		w.logger.Error("snapshot failed", "path", w.snapshot, "error", err)
	}
}

func (w *watcher) wait() { w.wg.Wait() }
