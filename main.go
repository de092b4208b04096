package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"flermboard/board"
	"flermboard/internal/config"
	"flermboard/internal/logging"
	"flermboard/render"
	"flermboard/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

// loadEnv reads the config file and applies command line overrides.
func (f *rootFlags) loadEnv() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if f.logLevel != "" {
		cfg.LogLevel = strings.ToLower(f.logLevel)
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config, quiet bool) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{Level: level, File: cfg.LogFile, Quiet: quiet, Service: "flerm"})
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "flerm [file]",
		Short:         "A terminal whiteboard",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			return runTUI(cmd.Context(), flags, arg)
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultPath(), "path to the config file")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "store boards in a badger database at this path")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(newExportCmd(flags), newTreeCmd(flags), newListCmd(flags))
	return cmd
}

// runTUI owns the terminal, so logs only go to the configured log file.
func runTUI(ctx context.Context, flags *rootFlags, arg string) error {
	cfg, err := flags.loadEnv()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Slog()

	metrics := board.NewMetrics(prometheus.NewRegistry())
	var (
		sess *session
		db   store.Store
	)
	if cfg.DBPath != "" {
		// Buffers share one database; badger allows a single opener.
		var closeDB func() error
		db, closeDB, err = openStore(cfg, arg, log)
		if err != nil {
			return err
		}
		defer closeDB()
		sess, err = openSessionIn(ctx, db, cfg, arg, log, metrics)
	} else {
		sess, err = openSession(ctx, cfg, arg, log, metrics)
	}
	if err != nil {
		return err
	}

	m := initialModel(cfg, sess, metrics, log)
	m.db = db
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if fm, ok := final.(model); ok {
		m = fm
	}
	for _, s := range m.buffers {
		if cerr := s.close(); cerr != nil {
			log.Warn("closing board", "name", s.name, "error", cerr)
		}
	}
	return err
}

// loadBoard opens arg from the configured store without a TUI.
func loadBoard(ctx context.Context, flags *rootFlags, arg string) (*board.Board, *config.Config, func(), error) {
	cfg, err := flags.loadEnv()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg, false)
	if err != nil {
		return nil, nil, nil, err
	}
	sess, err := openSession(ctx, cfg, arg, logger.Slog(), nil)
	if err != nil {
		logger.Close()
		return nil, nil, nil, err
	}
	if sess.persister != nil {
		sess.persister.Detach()
	}
	if !sess.loaded {
		sess.close()
		logger.Close()
		return nil, nil, nil, fmt.Errorf("%s: %w", arg, store.ErrNotFound)
	}
	cleanup := func() {
		sess.close()
		logger.Close()
	}
	return sess.board, cfg, cleanup, nil
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		output string
		format string
		scale  float64
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a board as PNG or text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, cfg, cleanup, err := loadBoard(cmd.Context(), flags, args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			if output == "" {
				output = snapshotName(args[0]) + "." + format
			}
			output = cfg.GetSavePath(output)
			switch format {
			case "png":
				opts := render.DefaultPNGOptions()
				opts.Scale = scale
				err = render.ExportPNG(b, output, opts)
			case "txt":
				err = render.NewTerminal(cfg.CellWidth, cfg.CellHeight).ExportText(b, output)
			default:
				return fmt.Errorf("unknown format %q (want png or txt)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "exported", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <name>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "png", "png or txt")
	cmd.Flags().Float64Var(&scale, "scale", 1, "PNG scale factor")
	return cmd
}

func newTreeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the element tree with paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, cleanup, err := loadBoard(cmd.Context(), flags, args[0])
			if err != nil {
				return err
			}
			defer cleanup()
			return printTree(cmd.OutOrStdout(), b)
		},
	}
}

// printTree writes one line per element: indented path, type, id and
// geometry.
func printTree(w io.Writer, b *board.Board) error {
	var err error
	b.Walk(func(el *board.Element, p board.Path) bool {
		if err != nil {
			return false
		}
		indent := strings.Repeat("  ", len(p)-1)
		line := fmt.Sprintf("%s%s %s %s", indent, p, el.Type, el.ID)
		if r, ok := el.BoundingBox(); ok {
			line += fmt.Sprintf(" (%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
		}
		if el.Text != "" {
			line += fmt.Sprintf(" %q", el.Text)
		}
		_, err = fmt.Fprintln(w, line)
		return true
	})
	return err
}

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List saved boards",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadEnv()
			if err != nil {
				return err
			}
			var arg string
			if len(args) == 1 {
				arg = filepath.Join(args[0], "x")
			}
			st, closer, err := openStore(cfg, arg, nil)
			if err != nil {
				return err
			}
			defer closer()
			names, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
