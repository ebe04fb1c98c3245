// Package julfake is an in-process fake of the Jul HTTP API. Routes answer
// with canned responses registered per method and path, every request is
// recorded, and event streams are fed from Publish.
package julfake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"julclient/internal/auth"
	julsdk "julclient/sdk/go"
)

const defaultKeepalive = 15 * time.Second

// Config for the fake server.
type Config struct {
	// Token, when set, must be presented as the bearer token.
	Token string
	// JWTSecret, when set, requires an HS256 bearer token signed with it.
	JWTSecret string
	Logger    *slog.Logger
	// Keepalive is the interval of ": ping" comments on event streams.
	Keepalive time.Duration
}

// Request is one recorded request.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Route    string
	Params   map[string]string
	Header   http.Header
	Body     []byte
}

// JSON decodes the recorded body into a map.
func (r Request) JSON() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(r.Body, &out)
	return out
}

// Response is a canned reply. A string or []byte Body is written verbatim;
// anything else is JSON-encoded. A nil Body writes no body.
type Response struct {
	Status      int
	ContentType string
	Body        any
}

type Server struct {
	URL string

	cfg    Config
	logger *slog.Logger
	srv    *httptest.Server
	broker *broker
	done   chan struct{}

	mu        sync.Mutex
	stubs     map[string]Response
	requests  []Request
	streamEnd chan struct{}
	closeOnce sync.Once
}

// New starts a fake server on a loopback port.
func New(cfg Config) *Server {
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = defaultKeepalive
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		broker:    newBroker(),
		done:      make(chan struct{}),
		stubs:     make(map[string]Response),
		streamEnd: make(chan struct{}),
	}
	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	return s
}

// Close ends all streams and shuts the server down.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.srv.CloseClientConnections()
		s.srv.Close()
	})
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(s.recordMiddleware)
	router.Use(s.authMiddleware)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	router.Get("/api/v1/repos", s.serveStub)
	router.Post("/api/v1/repos", s.serveStub)
	router.Get("/api/v1/repos/{name}", s.serveStub)
	router.Delete("/api/v1/repos/{name}", s.serveStub)

	const prefix = "/{repo}.jul/api/v1"
	router.Get(prefix+"/workspaces", s.serveStub)
	router.Get(prefix+"/workspaces/{workspaceID}", s.serveStub)
	router.Post(prefix+"/workspaces/{workspaceID}/promote", s.serveStub)
	router.Get(prefix+"/changes", s.serveStub)
	router.Get(prefix+"/changes/{changeID}", s.serveStub)
	router.Get(prefix+"/changes/{changeID}/interdiff", s.serveStub)
	router.Get(prefix+"/commits/{sha}", s.serveStub)
	router.Get(prefix+"/commits/{sha}/attestation", s.serveStub)
	router.Get(prefix+"/attestations", s.serveStub)
	router.Post(prefix+"/ci/trigger", s.handleTriggerCI)
	router.Get(prefix+"/suggestions", s.serveStub)
	router.Post(prefix+"/suggestions", s.serveStub)
	router.Get(prefix+"/suggestions/{suggestionID}", s.serveStub)
	router.Post(prefix+"/suggestions/{suggestionID}/accept", s.serveStub)
	router.Post(prefix+"/suggestions/{suggestionID}/reject", s.serveStub)
	router.Get(prefix+"/files", s.serveStub)
	router.Get(prefix+"/files/{path}/content", s.serveStub)
	router.Get(prefix+"/files/{path}/history", s.serveStub)
	router.Get(prefix+"/query", s.serveStub)
	router.Get(prefix+"/events/stream", s.handleEvents)
	return router
}

type recordKey struct{}

func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     r.URL.EscapedPath(),
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     bodyBytes,
		})
		idx := len(s.requests) - 1
		s.mu.Unlock()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), recordKey{}, idx)))
	})
}

// annotate stores the matched route on the recorded request.
func (s *Server) annotate(r *http.Request) {
	idx, ok := r.Context().Value(recordKey{}).(int)
	rctx := chi.RouteContext(r.Context())
	if !ok || rctx == nil {
		return
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		value := rctx.URLParams.Values[i]
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		params[key] = value
	}
	s.mu.Lock()
	s.requests[idx].Route = rctx.RoutePattern()
	s.requests[idx].Params = params
	s.mu.Unlock()
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if s.cfg.Token == "" && s.cfg.JWTSecret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if s.cfg.Token != "" && token != s.cfg.Token {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		if s.cfg.JWTSecret != "" {
			if _, err := auth.Verify(token, s.cfg.JWTSecret); err != nil {
				s.logger.Debug("rejected token", "error", err)
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Stub registers the reply for method and path. path is matched against the
// escaped request path without its query string.
func (s *Server) Stub(method, path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[method+" "+path] = resp
}

// StubJSON registers a JSON reply.
func (s *Server) StubJSON(method, path string, status int, body any) {
	s.Stub(method, path, Response{Status: status, ContentType: "application/json", Body: body})
}

// StubError registers an API error reply.
func (s *Server) StubError(method, path string, status int, kind, message string) {
	s.StubJSON(method, path, status, map[string]any{"error": kind, "message": message})
}

func (s *Server) stub(r *http.Request) (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.stubs[r.Method+" "+r.URL.EscapedPath()]
	return resp, ok
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) serveStub(w http.ResponseWriter, r *http.Request) {
	s.annotate(r)
	resp, ok := s.stub(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no response registered for "+r.Method+" "+r.URL.EscapedPath())
		return
	}
	writeResponse(w, resp)
}

// handleTriggerCI answers with a fresh job id and announces the run on the
// event stream unless a stub overrides it.
func (s *Server) handleTriggerCI(w http.ResponseWriter, r *http.Request) {
	s.annotate(r)
	if resp, ok := s.stub(r); ok {
		writeResponse(w, resp)
		return
	}
	var body struct {
		CommitSha string `json:"commit_sha"`
		Profile   string `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CommitSha == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "commit_sha required")
		return
	}
	jobID := uuid.NewString()
	repo := chi.URLParam(r, "repo")
	sha := body.CommitSha
	summary := "ci started"
	if body.Profile != "" {
		summary = "ci started (" + body.Profile + ")"
	}
	s.Publish(repo, julsdk.JulEvent{
		Type:      julsdk.EventCIStarted,
		Repo:      repo,
		CommitSha: &sha,
		Summary:   &summary,
	})
	writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID})
}

// Publish sends evt to every open stream of repo and records it for
// ?since= replay. Missing EventID and CreatedAt are filled in.
func (s *Server) Publish(repo string, evt julsdk.JulEvent) julsdk.JulEvent {
	now := time.Now().UTC()
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.CreatedAt == "" {
		evt.CreatedAt = now.Format(time.RFC3339Nano)
	}
	if evt.Repo == "" {
		evt.Repo = repo
	}
	createdAt, err := time.Parse(time.RFC3339Nano, evt.CreatedAt)
	if err != nil {
		createdAt = now
	}
	data, _ := json.Marshal(eventPayload(evt))
	s.broker.publish(repo, frame{
		id:        evt.EventID,
		event:     string(evt.Type),
		data:      string(data),
		createdAt: createdAt,
	})
	return evt
}

// PublishRaw writes text verbatim to every open stream of repo. It is not
// replayed.
func (s *Server) PublishRaw(repo, text string) {
	s.broker.publish(repo, frame{raw: text})
}

// Subscribers returns the number of open streams for repo.
func (s *Server) Subscribers(repo string) int {
	return s.broker.count(repo)
}

// EndStreams finishes every open stream cleanly.
func (s *Server) EndStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.streamEnd)
	s.streamEnd = make(chan struct{})
}

// DropConnections closes client connections without finishing responses.
func (s *Server) DropConnections() {
	s.srv.CloseClientConnections()
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.annotate(r)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}
	repo := chi.URLParam(r, "repo")
	if unescaped, err := url.PathUnescape(repo); err == nil {
		repo = unescaped
	}

	ch, cancel := s.broker.subscribe(repo)
	defer cancel()
	s.mu.Lock()
	end := s.streamEnd
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: ready\ndata: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	flusher.Flush()

	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		if since, err := time.Parse(time.RFC3339Nano, sinceParam); err == nil {
			for _, f := range s.broker.since(repo, since) {
				writeFrame(w, f)
			}
			flusher.Flush()
		}
	}

	keepalive := time.NewTicker(s.cfg.Keepalive)
	defer keepalive.Stop()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-end:
			return
		case f := <-ch:
			writeFrame(w, f)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeFrame(w io.Writer, f frame) {
	if f.raw != "" {
		fmt.Fprint(w, f.raw)
		return
	}
	fmt.Fprintf(w, "id: %s\n", f.id)
	fmt.Fprintf(w, "event: %s\n", f.event)
	fmt.Fprintf(w, "data: %s\n\n", f.data)
}

// eventPayload renders an event the way the server does, with underscore
// keys and absent optionals omitted.
func eventPayload(evt julsdk.JulEvent) map[string]any {
	out := map[string]any{
		"event_id":   evt.EventID,
		"type":       string(evt.Type),
		"repo":       evt.Repo,
		"created_at": evt.CreatedAt,
	}
	optional := map[string]*string{
		"ref":            evt.Ref,
		"commit_sha":     evt.CommitSha,
		"change_id":      evt.ChangeID,
		"summary":        evt.Summary,
		"attestation_id": evt.AttestationID,
	}
	for key, v := range optional {
		if v != nil {
			out[key] = *v
		}
	}
	return out
}

func writeResponse(w http.ResponseWriter, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	switch body := resp.Body.(type) {
	case nil:
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(status)
	case string:
		writeRaw(w, status, resp.ContentType, []byte(body))
	case []byte:
		writeRaw(w, status, resp.ContentType, body)
	default:
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		writeJSON(w, status, body)
	}
}

func writeRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{"error": kind, "message": message})
}
