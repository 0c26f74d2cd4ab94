package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/luckyjian/sqlinsight/internal/collect"
	"github.com/luckyjian/sqlinsight/internal/config"
	"github.com/luckyjian/sqlinsight/internal/mysqlx"
	"github.com/luckyjian/sqlinsight/internal/output"
	"github.com/luckyjian/sqlinsight/internal/postgres"
	"github.com/luckyjian/sqlinsight/internal/schedule"
)

func newCollectCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Run collection cycles and emit one result envelope per cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			format, err := output.ParseFormat(cfg.Output)
			if err != nil {
				return err
			}

			pipeline := collect.New(collect.Config{
				Engine:         cfg.EngineKind(),
				RequestedLevel: cfg.RequestedLevel(),
				MySQLLimits:    cfg.MySQLLimits(),
				PGLimits:       cfg.PGLimits(),
				Level1:         cfg.Level1Capture(),
			}, *log, mysqlFactory(cfg), postgresFactory(cfg))

			scheduler := schedule.New(cfg.SchedulePolicy(), cfg.EngineKind(),
				cfg.RequestedLevel(), *log)
			log.Info().
				Str("run_id", scheduler.RunID()).
				Str("engine", cfg.Engine).
				Str("requested_level", cfg.Level).
				Str("mode", cfg.Schedule.Mode).
				Msg("starting collection")

			// Track failed cycles so a failed once-mode run exits nonzero
			// while still emitting its envelope.
			var failedCycles int
			emit := output.Emitter(cmd.OutOrStdout(), format)
			err = scheduler.Run(ctx, pipeline.Run, func(record schedule.Record) error {
				if record.Status == schedule.StatusFailed {
					failedCycles++
				}
				return emit(record)
			})
			if err != nil {
				return err
			}
			if cfg.Schedule.Mode == string(schedule.RunOnce) && failedCycles > 0 {
				return errors.New("collection cycle failed; see envelope error field")
			}
			if failedCycles > 0 {
				log.Warn().Int("failed_cycles", failedCycles).Msg("run finished with failed cycles")
			}
			return nil
		},
	}
}

// mysqlFactory opens a fresh pool per cycle so a server restart between
// daemon cycles cannot strand a dead connection.
func mysqlFactory(cfg *config.Config) collect.MySQLFactory {
	return func(ctx context.Context) (mysqlx.DB, func() error, error) {
		if cfg.MySQL.DSN == "" {
			return nil, nil, fmt.Errorf("mysql.dsn not configured (set SQLINSIGHT_MYSQL_DSN)")
		}
		db, err := mysqlx.Open(cfg.MySQL.DSN)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
}

// postgresFactory prefers a full connection URL; discrete pg.* fields with
// the env-supplied password are the fallback.
func postgresFactory(cfg *config.Config) collect.PostgresFactory {
	return func(ctx context.Context) (postgres.DB, func() error, error) {
		if cfg.PG.URL != "" {
			conn, err := postgres.ConnectURL(ctx, cfg.PG.URL)
			if err != nil {
				return nil, nil, err
			}
			closer := func() error { return conn.Close(context.Background()) }
			return postgres.NewPgxDB(conn), closer, nil
		}
		if cfg.PG.Host == "" {
			return nil, nil, fmt.Errorf("pg.host not configured (set SQLINSIGHT_PG_HOST or SQLINSIGHT_PG_URL)")
		}
		conn, err := postgres.Connect(ctx, cfg.PGConnConfig())
		if err != nil {
			return nil, nil, err
		}
		closer := func() error { return conn.Close(context.Background()) }
		return postgres.NewPgxDB(conn), closer, nil
	}
}
