package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmatrix/pkg/repository/file"
	"github.com/secmon-lab/riskmatrix/pkg/repository/memory"
	"github.com/secmon-lab/riskmatrix/pkg/repository/sqlite"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Storage backend names
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	defaultDataDir    = ".riskmatrix"
	defaultSQLiteFile = "riskmatrix.db"
)

// Storage holds CLI flags for storage backend configuration
type Storage struct {
	backend string
	path    string
	key     string
}

// Flags returns CLI flags for storage configuration
func (s *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-backend",
			Usage:       "Storage backend type (file, sqlite or memory)",
			Value:       BackendFile,
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMATRIX_STORAGE_BACKEND"),
			Destination: &s.backend,
		},
		&cli.StringFlag{
			Name:        "storage-path",
			Usage:       "Directory (file) or database path (sqlite). Defaults to ~/" + defaultDataDir,
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMATRIX_STORAGE_PATH"),
			Destination: &s.path,
		},
		&cli.StringFlag{
			Name:        "storage-key",
			Usage:       "Key the risk collection is stored under",
			Value:       usecase.DefaultStorageKey,
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMATRIX_STORAGE_KEY"),
			Destination: &s.key,
		},
	}
}

// Backend returns the configured backend type
func (s *Storage) Backend() string {
	return s.backend
}

// Key returns the storage key
func (s *Storage) Key() string {
	return s.key
}

// LogValue returns the storage settings as a log attribute
func (s Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", s.backend),
		slog.String("path", s.path),
		slog.String("key", s.key),
	)
}

// Merge fills settings not given on the command line from the app config.
// isSet reports whether a flag was set explicitly.
func (s *Storage) Merge(defaults StorageDefaults, isSet func(name string) bool) {
	if defaults.Backend != "" && !isSet("storage-backend") {
		s.backend = defaults.Backend
	}
	if defaults.Path != "" && !isSet("storage-path") {
		s.path = defaults.Path
	}
	if defaults.Key != "" && !isSet("storage-key") {
		s.key = defaults.Key
	}
}

func (s *Storage) resolvePath(name string) (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve home directory, set --storage-path")
	}
	return filepath.Join(home, defaultDataDir, name), nil
}

// Configure initializes and returns storage based on the configured backend.
// The caller is responsible for calling Close() on the returned storage.
func (s *Storage) Configure(ctx context.Context) (interfaces.Storage, error) {
	switch s.backend {
	case BackendFile:
		dir, err := s.resolvePath("")
		if err != nil {
			return nil, err
		}
		st, err := file.New(dir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize file storage")
		}
		logging.From(ctx).Debug("Using file storage", "dir", st.Dir())
		return st, nil

	case BackendSQLite:
		path, err := s.resolvePath(defaultSQLiteFile)
		if err != nil {
			return nil, err
		}
		st, err := sqlite.New(ctx, path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite storage")
		}
		logging.From(ctx).Debug("Using sqlite storage", "path", st.Path())
		return st, nil

	case BackendMemory:
		logging.From(ctx).Info("Using in-memory storage, risks are not kept after exit")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "unknown storage backend", goerr.V(BackendKey, s.backend))
	}
}
