package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"julclient/internal/app"
	"julclient/internal/db"
	"julclient/internal/events"
	"julclient/internal/logging"
	"julclient/internal/migrate"
	julsdk "julclient/sdk/go"
)

func (c *cli) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the repository event stream",
	}

	var since string
	var resume bool
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print events as they happen",
		Long: `Print repository events as they happen until interrupted or the
server ends the stream.

With --resume the last event seen is stored in .jul/state.db and the next
watch replays everything after it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.From(ctx)
			repo, err := c.repo()
			if err != nil {
				return err
			}
			client := c.client()

			var store events.Store
			var replay *replayFilter
			if resume {
				s, closeStore, err := app.OpenCursorStore(c.settings.Workspace)
				if err != nil {
					return err
				}
				defer closeStore()
				store = s
				if since == "" {
					cur, err := store.Load(ctx, client.BaseURL(), repo)
					switch {
					case err == nil:
						since = cur.CreatedAt
						replay = &replayFilter{eventID: cur.EventID, createdAt: cur.CreatedAt}
						logger.Info("resuming event stream", "repo", repo, "since", since, "event_id", cur.EventID)
					case !errors.Is(err, events.ErrNoCursor):
						return err
					}
				}
			}

			format, err := c.format()
			if err != nil {
				return err
			}
			asJSON := format != outputTable

			var mu sync.Mutex
			handler := func(evt julsdk.JulEvent) {
				mu.Lock()
				defer mu.Unlock()
				if replay.seen(evt) {
					logger.Debug("skipping replayed event", "event_id", evt.EventID)
					return
				}
				if asJSON {
					data, _ := json.Marshal(evt)
					fmt.Fprintln(c.out, string(data))
				} else {
					fmt.Fprintln(c.out, formatEvent(evt))
				}
				if store.DB != nil {
					if err := store.Save(ctx, client.BaseURL(), repo, evt); err != nil {
						logger.Warn("failed to save event cursor", "error", err)
					}
				}
			}

			sub, err := client.SubscribeEvents(ctx, repo, handler, julsdk.SubscribeOptions{Since: since})
			if err != nil {
				return err
			}
			defer sub.Close()

			select {
			case <-ctx.Done():
				sub.Close()
				<-sub.Done()
				return nil
			case <-sub.Done():
				return sub.Err()
			}
		},
	}
	watchCmd.Flags().StringVar(&since, "since", "", "replay events created after this RFC 3339 timestamp")
	watchCmd.Flags().BoolVar(&resume, "resume", false, "continue from the last event seen by a previous watch")

	cursorsCmd := &cobra.Command{
		Use:   "cursors",
		Short: "List saved stream positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := app.OpenCursorStore(c.settings.Workspace)
			if err != nil {
				return err
			}
			defer closeStore()
			cursors, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.print(cursors, table.Row{"Server", "Repo", "Last Event", "Type", "Created"}, func() []table.Row {
				rows := make([]table.Row, 0, len(cursors))
				for _, cur := range cursors {
					rows = append(rows, table.Row{cur.BaseURL, cur.Repo, cur.EventID, cur.EventType, cur.CreatedAt})
				}
				return rows
			}); err != nil {
				return err
			}
			if format, _ := c.format(); format == outputTable {
				version, err := migrate.Version(store.DB)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "State schema version %d (%s)\n", version, db.Path(c.settings.Workspace))
			}
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved stream position of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			store, closeStore, err := app.OpenCursorStore(c.settings.Workspace)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := store.Reset(cmd.Context(), c.client().BaseURL(), repo); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Reset event cursor for %s\n", repo)
			return nil
		},
	}

	cmd.AddCommand(watchCmd, cursorsCmd, resetCmd)
	return cmd
}

// replayFilter drops the events a resumed watch already printed. Replay
// starts at the cursor's timestamp inclusively, so the cursor event and any
// earlier events sharing its timestamp arrive first.
type replayFilter struct {
	eventID   string
	createdAt string
}

func (f *replayFilter) seen(evt julsdk.JulEvent) bool {
	if f == nil || f.eventID == "" {
		return false
	}
	if evt.EventID == f.eventID {
		f.eventID = ""
		return true
	}
	if evt.CreatedAt == f.createdAt {
		return true
	}
	// The cursor event was not replayed; everything from here on is new.
	f.eventID = ""
	return false
}

func formatEvent(evt julsdk.JulEvent) string {
	parts := []string{evt.CreatedAt, string(evt.Type)}
	if evt.Ref != nil {
		parts = append(parts, *evt.Ref)
	}
	if evt.ChangeID != nil {
		parts = append(parts, *evt.ChangeID)
	}
	if evt.CommitSha != nil {
		parts = append(parts, shortSha(*evt.CommitSha))
	}
	if evt.Summary != nil {
		parts = append(parts, *evt.Summary)
	}
	return strings.Join(parts, "  ")
}
