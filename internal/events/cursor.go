// Package events persists how far `jul events watch` has read each
// repository's stream, so a watch can resume with ?since=.
package events

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"

	julsdk "julclient/sdk/go"
)

// ErrNoCursor is returned by Load when nothing was saved for a repository.
var ErrNoCursor = goerr.New("no saved event cursor")

// Cursor is the last event seen on a repository stream.
type Cursor struct {
	BaseURL   string
	Repo      string
	EventID   string
	EventType string
	CreatedAt string
	UpdatedAt string
}

// Store reads and writes cursors in the local state database.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

// Save records evt as the latest event seen for repo on baseURL.
func (s Store) Save(ctx context.Context, baseURL, repo string, evt julsdk.JulEvent) error {
	if s.Now == nil {
		s.Now = time.Now
	}
	if repo == "" {
		return goerr.New("repo required")
	}
	if evt.CreatedAt == "" {
		return goerr.New("event has no created_at", goerr.V("event_id", evt.EventID))
	}
	ts := s.Now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO event_cursors(base_url,repo,event_id,event_type,created_at,updated_at) VALUES (?,?,?,?,?,?)
ON CONFLICT(base_url,repo) DO UPDATE SET
  event_id=excluded.event_id,
  event_type=excluded.event_type,
  created_at=excluded.created_at,
  updated_at=excluded.updated_at`,
		baseURL, repo, evt.EventID, string(evt.Type), evt.CreatedAt, ts)
	if err != nil {
		return goerr.Wrap(err, "failed to save event cursor", goerr.V("repo", repo))
	}
	return nil
}

// Load returns the saved cursor for repo on baseURL.
func (s Store) Load(ctx context.Context, baseURL, repo string) (Cursor, error) {
	c := Cursor{BaseURL: baseURL, Repo: repo}
	err := s.DB.QueryRowContext(ctx,
		`SELECT event_id,event_type,created_at,updated_at FROM event_cursors WHERE base_url=? AND repo=?`,
		baseURL, repo).Scan(&c.EventID, &c.EventType, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return Cursor{}, goerr.Wrap(ErrNoCursor, "cursor not found", goerr.V("repo", repo))
	}
	if err != nil {
		return Cursor{}, goerr.Wrap(err, "failed to load event cursor", goerr.V("repo", repo))
	}
	return c, nil
}

// List returns every saved cursor ordered by base URL and repository.
func (s Store) List(ctx context.Context) ([]Cursor, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT base_url,repo,event_id,event_type,created_at,updated_at FROM event_cursors ORDER BY base_url,repo`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list event cursors")
	}
	defer rows.Close()
	var out []Cursor
	for rows.Next() {
		var c Cursor
		if err := rows.Scan(&c.BaseURL, &c.Repo, &c.EventID, &c.EventType, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan event cursor")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reset deletes the cursor for repo on baseURL.
func (s Store) Reset(ctx context.Context, baseURL, repo string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM event_cursors WHERE base_url=? AND repo=?`, baseURL, repo); err != nil {
		return goerr.Wrap(err, "failed to reset event cursor", goerr.V("repo", repo))
	}
	return nil
}
