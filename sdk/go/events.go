package julsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// readyEvent is the handshake frame the server writes when a stream opens.
const readyEvent = "ready"

// Subscription is a live event stream opened by SubscribeEvents.
type Subscription struct {
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// Close stops the stream and releases the connection. It is idempotent,
// does not wait for the reader, and may be called from the handler.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
	})
}

// Done is closed once the reader goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the stream. It stays nil while the
// stream runs and when it ends through Close, context cancellation or a
// clean server close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Subscription) fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.err = err
	return true
}

// SubscribeEvents opens the repository event stream and delivers each event
// to handler, one at a time and in server order. The connection is opened
// before SubscribeEvents returns; an open failure is returned and nothing
// keeps running. Cancelling ctx has the same effect as Close.
//
// Frames whose payload is not valid JSON are logged and skipped. The stream
// is not reopened after the server closes it or a read fails.
func (c *Client) SubscribeEvents(ctx context.Context, repo string, handler func(JulEvent), opts SubscribeOptions) (*Subscription, error) {
	baseURL, token, err := c.credentials()
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	path := EventStreamPath(repo, opts)
	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, readAPIError(resp)
	}
	c.logger.Debug("jul event stream opened", "repo", repo, "path", path)

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer cancel()
		defer resp.Body.Close()

		scanner := newSSEScanner(resp.Body)
		for scanner.Next() {
			if sub.isClosed() {
				return
			}
			frame := scanner.Frame()
			if frame.Event == readyEvent {
				continue
			}
			var payload any
			if err := json.Unmarshal([]byte(frame.Data), &payload); err != nil {
				c.logger.Warn("failed to parse jul event", "repo", repo, "error", err)
				continue
			}
			event := MapJulEvent(payload)
			if event.EventID == "" {
				event.EventID = frame.ID
			}
			if event.Type == "" {
				event.Type = EventType(frame.Event)
			}
			handler(event)
		}
		if err := scanner.Err(); err != nil && streamCtx.Err() == nil {
			if sub.fail(err) {
				c.logger.Error("jul event stream error", "repo", repo, "error", err)
			}
		}
	}()
	return sub, nil
}
