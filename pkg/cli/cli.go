package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/cli/config"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
	"github.com/secmon-lab/riskmatrix/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// runtime carries settings resolved in the root Before hook
type runtime struct {
	app *config.AppConfig
}

func Run(ctx context.Context, args []string, version string) error {
	if err := newApp(version).Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}
	return nil
}

func newApp(version string) *cli.Command {
	var loggerCfg config.Logger
	var storageCfg config.Storage
	var appCfg config.App
	var sentryCfg config.Sentry
	var telemetryCfg config.Telemetry
	var closers []func()
	var storage interfaces.Storage
	rt := &runtime{app: &config.AppConfig{}}

	flags := loggerCfg.Flags()
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, telemetryCfg.Flags()...)

	return &cli.Command{
		Name:    "riskmatrix",
		Usage:   "Risk register with probability/impact scoring",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closer, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, closer)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			shutdownTracing, err := telemetryCfg.Configure(ctx)
			if err != nil {
				return ctx, goerr.Wrap(err, "failed to initialize tracing")
			}
			closers = append(closers, shutdownTracing)

			cfg, err := appCfg.Configure()
			if err != nil {
				return ctx, goerr.Wrap(err, "failed to load configuration")
			}
			rt.app = cfg
			storageCfg.Merge(cfg.Storage, c.IsSet)

			storage, err = storageCfg.Configure(ctx)
			if err != nil {
				return ctx, goerr.Wrap(err, "failed to initialize storage")
			}

			opts := append([]usecase.Option{usecase.WithStorageKey(storageCfg.Key())}, cfg.StoreOptions()...)
			store := usecase.NewRiskStore(storage, opts...)
			store.Load(ctx)

			logging.Default().Debug("Starting riskmatrix",
				"logger", loggerCfg,
				"storage", storageCfg,
				"sentry", sentryCfg,
				"telemetry", telemetryCfg,
			)
			return usecase.WithStore(ctx, store), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if storage != nil {
				safe.Close(ctx, storage)
			}
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdAdd(),
			cmdEdit(),
			cmdDelete(),
			cmdClear(),
			cmdList(),
			cmdStats(),
			cmdMatrix(),
			cmdLevels(),
			cmdExport(rt),
			cmdImport(),
			cmdServe(rt),
		},
	}
}
