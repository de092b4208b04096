package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flermboard/board"
)

const defaultSaveTimeout = 5 * time.Second

// Persister saves a board to a store whenever a gesture or command ends
// with a commit. It never reads the board during a gesture.
type Persister struct {
	store   Store
	name    string
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	saves   int
	lastErr error
	unsub   func()
}

func NewPersister(s Store, name string, log *slog.Logger) *Persister {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Persister{store: s, name: name, log: log, timeout: defaultSaveTimeout}
}

// Attach subscribes to b. Attaching again moves the subscription.
func (p *Persister) Attach(b *board.Board) {
	p.Detach()
	unsub := b.Subscribe(board.AllEvents, func(ev board.Event) {
		if !ev.IsTerminal() || !ev.Commit {
			return
		}
		if err := p.Save(b); err != nil {
			p.log.Error("autosave failed", "name", p.name, "event", ev.Name, "error", err)
		}
	})
	p.mu.Lock()
	p.unsub = unsub
	p.mu.Unlock()
}

func (p *Persister) Detach() {
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Save writes the board's current state immediately.
func (p *Persister) Save(b *board.Board) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	err := p.store.Save(ctx, p.name, Capture(b))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err == nil {
		p.saves++
		p.log.Debug("board saved", "name", p.name, "elements", b.Count())
	}
	return err
}

// Saves returns the number of successful saves.
func (p *Persister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// LastError returns the result of the most recent save.
func (p *Persister) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Persister) Name() string {
	return p.name
}
