// Package config reads ~/.flermrc, a key=value file with # comments.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const FileName = ".flermrc"

type Config struct {
	SaveDirectory string
	// DBPath selects the badger store instead of plain files when set.
	DBPath        string
	Confirmations bool

	Snap          bool
	SnapTolerance float64 `validate:"gte=0,lte=100"`
	DragThreshold float64 `validate:"gte=0,lte=100"`
	HitTolerance  float64 `validate:"gte=0,lte=50"`
	MinSize       float64 `validate:"gte=1,lte=1000"`
	HistoryLimit  int     `validate:"gte=1,lte=100000"`

	CellWidth  float64 `validate:"gt=0,lte=64"`
	CellHeight float64 `validate:"gt=0,lte=64"`

	LogLevel string `validate:"omitempty,oneof=debug info warn warning error"`
	LogFile  string
}

var validate = validator.New()

func Default() *Config {
	return &Config{
		Confirmations: true,
		Snap:          true,
		SnapTolerance: 6,
		DragThreshold: 5,
		HitTolerance:  4,
		MinSize:       8,
		HistoryLimit:  200,
		CellWidth:     8,
		CellHeight:    16,
		LogLevel:      "info",
	}
}

// DefaultPath returns ~/.flermrc, or "" when there is no home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, FileName)
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	home, _ := os.UserHomeDir()
	return Parse(f, home)
}

// Parse reads key=value lines over the defaults. Unknown keys are ignored
// so newer files keep working with older binaries; bad values are errors.
func Parse(r io.Reader, home string) (*Config, error) {
	cfg := Default()
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if err := cfg.set(key, value, home); err != nil {
			return nil, fmt.Errorf("config line %d: %s: %w", lineNo, key, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) set(key, value, home string) error {
	var err error
	switch key {
	case "savedirectory", "save_directory", "savedir":
		c.SaveDirectory = expandPath(value, home)
	case "db_path", "dbpath":
		c.DBPath = expandPath(value, home)
	case "confirmations", "confirm":
		c.Confirmations, err = strconv.ParseBool(value)
	case "snap":
		c.Snap, err = strconv.ParseBool(value)
	case "snap_tolerance":
		c.SnapTolerance, err = strconv.ParseFloat(value, 64)
	case "drag_threshold":
		c.DragThreshold, err = strconv.ParseFloat(value, 64)
	case "hit_tolerance":
		c.HitTolerance, err = strconv.ParseFloat(value, 64)
	case "min_size":
		c.MinSize, err = strconv.ParseFloat(value, 64)
	case "history_limit":
		c.HistoryLimit, err = strconv.Atoi(value)
	case "cell_width":
		c.CellWidth, err = strconv.ParseFloat(value, 64)
	case "cell_height":
		c.CellHeight, err = strconv.ParseFloat(value, 64)
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "log_file":
		c.LogFile = expandPath(value, home)
	}
	return err
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetSavePath places filename inside the save directory, creating it.
// Absolute filenames are returned unchanged.
func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}

func expandPath(value, home string) string {
	if strings.HasPrefix(value, "~") && home != "" {
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	if !filepath.IsAbs(value) {
		if abs, err := filepath.Abs(value); err == nil {
			value = abs
		}
	}
	return value
}
