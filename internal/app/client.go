// Package app wires resolved CLI settings into an API client and the local
// state store.
package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"

	"julclient/internal/db"
	"julclient/internal/events"
	"julclient/internal/migrate"
	julsdk "julclient/sdk/go"
)

// ErrRepoRequired is returned when a repository-scoped command has no repo.
var ErrRepoRequired = goerr.New("repository not specified; use --repo or set repo in jul.yml")

// Settings are the effective values after flags, environment and jul.yml
// have been merged.
type Settings struct {
	Workspace     string
	BaseURL       string
	Token         string `masq:"secret"`
	Repo          string
	RatePerSecond float64
	RateBurst     int
	Logger        *slog.Logger
	HTTPClient    *http.Client
}

// NewClient builds an API client from s.
func NewClient(s Settings) *julsdk.Client {
	opts := []julsdk.Option{}
	if s.Logger != nil {
		opts = append(opts, julsdk.WithLogger(s.Logger))
	}
	if s.HTTPClient != nil {
		opts = append(opts, julsdk.WithHTTPClient(s.HTTPClient))
	}
	if limiter := s.limiter(); limiter != nil {
		opts = append(opts, julsdk.WithRateLimiter(limiter))
	}
	return julsdk.New(julsdk.Config{BaseURL: s.BaseURL, Token: s.Token}, opts...)
}

// limiter returns nil when rate limiting is off.
func (s Settings) limiter() *rate.Limiter {
	if s.RatePerSecond <= 0 {
		return nil
	}
	burst := s.RateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.RatePerSecond), burst)
}

// ResolveRepo picks override, falling back to the configured repository.
func (s Settings) ResolveRepo(override string) (string, error) {
	repo := strings.TrimSpace(override)
	if repo == "" {
		repo = strings.TrimSpace(s.Repo)
	}
	if repo == "" {
		return "", ErrRepoRequired
	}
	return repo, nil
}

// OpenCursorStore opens and migrates the workspace state database. The
// returned func closes it.
func OpenCursorStore(workspace string) (events.Store, func() error, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return events.Store{}, nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return events.Store{}, nil, goerr.Wrap(err, "failed to migrate state database", goerr.V("path", db.Path(workspace)))
	}
	return events.Store{DB: conn}, conn.Close, nil
}
