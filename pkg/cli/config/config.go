package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/riskmatrix/pkg/service/report"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the optional TOML application configuration
type AppConfig struct {
	Report  ReportConfig    `toml:"report"`
	Store   StoreConfig     `toml:"store"`
	Storage StorageDefaults `toml:"storage"`
}

// ReportConfig configures exported reports
type ReportConfig struct {
	Title string `toml:"title"`
}

// StoreConfig configures risk store behavior
type StoreConfig struct {
	PreserveCreatedAt bool `toml:"preserve_created_at"`
}

// StorageDefaults provides storage settings used when the matching flag is
// not given
type StorageDefaults struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	Key     string `toml:"key"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	switch a.Storage.Backend {
	case "", BackendFile, BackendSQLite, BackendMemory:
	default:
		return goerr.Wrap(ErrInvalidBackend, "invalid storage backend in config", goerr.V(BackendKey, a.Storage.Backend))
	}
	return nil
}

// StoreOptions returns the risk store options derived from the config
func (a *AppConfig) StoreOptions() []usecase.Option {
	return []usecase.Option{
		usecase.WithPreserveCreatedAt(a.Store.PreserveCreatedAt),
	}
}

// ReportOptions returns the report options derived from the config
func (a *AppConfig) ReportOptions() []report.Option {
	return []report.Option{
		report.WithTitle(a.Report.Title),
	}
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// App holds the CLI flag pointing at the TOML configuration
type App struct {
	path string
}

// Flags returns CLI flags for app configuration
func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("RISKMATRIX_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the configuration file. Without --config an empty
// configuration is returned.
func (a *App) Configure() (*AppConfig, error) {
	if a.path == "" {
		return &AppConfig{}, nil
	}
	return LoadAppConfiguration(a.path)
}
