package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"flermboard/board"
	"flermboard/internal/config"
	"flermboard/plugins"
	"flermboard/store"
)

// session is one open board, the pipeline driving it and where it is
// saved. A session without a name has never been saved.
type session struct {
	board     *board.Board
	pipe      *plugins.Pipeline
	store     store.Store
	name      string
	loaded    bool
	persister *store.Persister
	closer    func() error
	log       *slog.Logger
}

func pluginOptions(cfg *config.Config) plugins.Options {
	return plugins.Options{
		DragThreshold: cfg.DragThreshold,
		Snap:          cfg.Snap,
		SnapTolerance: cfg.SnapTolerance,
		HitTolerance:  cfg.HitTolerance,
		MinSize:       cfg.MinSize,
	}
}

// newBoard builds a board wired to the default plugin pipeline.
func newBoard(cfg *config.Config, log *slog.Logger, metrics *board.Metrics, snap *store.Snapshot) (*board.Board, *plugins.Pipeline) {
	pipe := plugins.NewPipeline(pluginOptions(cfg))
	opts := []board.Option{
		board.WithPlugins(pipe.Plugins()...),
		board.WithLogger(log),
		board.WithMetrics(metrics),
		board.WithHistoryLimit(cfg.HistoryLimit),
	}
	if snap != nil {
		opts = append(opts, snap.Options()...)
	}
	return board.New(opts...), pipe
}

// snapshotName turns a command line argument into a store name.
func snapshotName(arg string) string {
	return strings.TrimSuffix(filepath.Base(arg), store.FileExt)
}

// openStore picks the badger database when db_path is configured and a file
// store otherwise. A file argument with a directory part is stored next to
// itself; bare names go to the save directory.
func openStore(cfg *config.Config, arg string, log *slog.Logger) (store.Store, func() error, error) {
	if cfg.DBPath != "" {
		bc := store.DefaultBadgerConfig(cfg.DBPath)
		bc.Logger = log
		bs, err := store.OpenBadger(bc)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs.Close, nil
	}
	dir := cfg.SaveDirectory
	if arg != "" && filepath.Dir(arg) != "." {
		dir = filepath.Dir(arg)
	}
	fs, err := store.NewFileStore(dir)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() error { return nil }, nil
}

// openSession loads arg, or starts an empty board when arg is empty or
// does not exist yet. Committed gestures are saved automatically once the
// session has a name. The session owns the store it opens.
func openSession(ctx context.Context, cfg *config.Config, arg string, log *slog.Logger, metrics *board.Metrics) (*session, error) {
	st, closer, err := openStore(cfg, arg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s, err := openSessionIn(ctx, st, cfg, arg, log, metrics)
	if err != nil {
		closer()
		return nil, err
	}
	s.closer = closer
	return s, nil
}

// openSessionIn opens arg in a store shared with other sessions. Closing
// the session leaves the store open.
func openSessionIn(ctx context.Context, st store.Store, cfg *config.Config, arg string, log *slog.Logger, metrics *board.Metrics) (*session, error) {
	s := &session{store: st, log: log}

	var snap *store.Snapshot
	if arg != "" {
		s.name = snapshotName(arg)
		loaded, err := st.Load(ctx, s.name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			log.Info("starting new board", "name", s.name)
		case err != nil:
			return nil, fmt.Errorf("load %s: %w", s.name, err)
		default:
			snap = &loaded
			s.loaded = true
		}
	}
	s.board, s.pipe = newBoard(cfg, log, metrics, snap)
	if s.name != "" {
		s.attach()
	}
	return s, nil
}

func (s *session) attach() {
	if s.persister != nil {
		s.persister.Detach()
	}
	s.persister = store.NewPersister(s.store, s.name, s.log)
	s.persister.Attach(s.board)
}

// saveAs names the session and saves it now.
func (s *session) saveAs(name string) error {
	name = snapshotName(name)
	if name == "" {
		return store.ErrInvalidName
	}
	if name != s.name || s.persister == nil {
		s.name = name
		s.attach()
	}
	return s.persister.Save(s.board)
}

func (s *session) close() error {
	if s.persister != nil {
		s.persister.Detach()
	}
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
