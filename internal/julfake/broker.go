package julfake

import (
	"sync"
	"time"
)

// frame is one queued SSE frame. Raw frames bypass the id/event/data
// layout and are written verbatim.
type frame struct {
	id        string
	event     string
	data      string
	raw       string
	createdAt time.Time
}

// broker fans published frames out to every open stream of a repository and
// keeps the history used for ?since= replay.
type broker struct {
	mu      sync.Mutex
	subs    map[string]map[chan frame]struct{}
	history map[string][]frame
}

func newBroker() *broker {
	return &broker{
		subs:    make(map[string]map[chan frame]struct{}),
		history: make(map[string][]frame),
	}
}

func (b *broker) subscribe(repo string) (<-chan frame, func()) {
	ch := make(chan frame, 64)
	b.mu.Lock()
	if b.subs[repo] == nil {
		b.subs[repo] = make(map[chan frame]struct{})
	}
	b.subs[repo][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[repo], ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

func (b *broker) publish(repo string, f frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.raw == "" {
		b.history[repo] = append(b.history[repo], f)
	}
	for ch := range b.subs[repo] {
		select {
		case ch <- f:
		default:
			// Drop if subscriber is too slow.
		}
	}
}

func (b *broker) since(repo string, t time.Time) []frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []frame
	for _, f := range b.history[repo] {
		if !f.createdAt.Before(t) {
			out = append(out, f)
		}
	}
	return out
}

func (b *broker) count(repo string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[repo])
}
