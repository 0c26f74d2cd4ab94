package hotswitch

import (
	"context"
	"fmt"
	"strconv"

	"github.com/luckyjian/sqlinsight/internal/level"
)

// SettingLogMinDuration is the Postgres statement-logging threshold managed
// by the hot switch.
const SettingLogMinDuration = "log_min_duration_statement"

// PostgresDB abstracts the statements the Postgres hot switch needs:
// reading a setting, ALTER SYSTEM SET, and pg_reload_conf().
type PostgresDB interface {
	ShowSetting(ctx context.Context, name string) (string, error)
	AlterSystem(ctx context.Context, name, value string) error
	ReloadConf(ctx context.Context) error
}

// PostgresStrategy lowers log_min_duration_statement for the capture window
// via ALTER SYSTEM SET followed by a config reload. The Level 1 pipeline does
// not reach this path yet; the strategy exists so the session controller is
// engine-complete when it does.
type PostgresStrategy struct {
	db                PostgresDB
	thresholdMillisec int
}

// NewPostgresStrategy returns a strategy that sets the statement-logging
// threshold to the given number of milliseconds.
func NewPostgresStrategy(db PostgresDB, thresholdMillisec int) *PostgresStrategy {
	return &PostgresStrategy{db: db, thresholdMillisec: thresholdMillisec}
}

func (s *PostgresStrategy) Engine() level.Engine { return level.EnginePostgres }

func (s *PostgresStrategy) Snapshot(ctx context.Context) (Settings, error) {
	value, err := s.db.ShowSetting(ctx, SettingLogMinDuration)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SettingLogMinDuration, err)
	}
	return Settings{SettingLogMinDuration: value}, nil
}

func (s *PostgresStrategy) Apply(ctx context.Context) error {
	value := strconv.Itoa(s.thresholdMillisec)
	if err := s.db.AlterSystem(ctx, SettingLogMinDuration, value); err != nil {
		return fmt.Errorf("ALTER SYSTEM SET %s = '%s': %w", SettingLogMinDuration, value, err)
	}
	if err := s.db.ReloadConf(ctx); err != nil {
		return fmt.Errorf("pg_reload_conf(): %w", err)
	}
	return nil
}

func (s *PostgresStrategy) Restore(ctx context.Context, original Settings) error {
	previous, ok := original[SettingLogMinDuration]
	if !ok {
		return nil
	}
	if err := s.db.AlterSystem(ctx, SettingLogMinDuration, previous); err != nil {
		return fmt.Errorf("ALTER SYSTEM SET %s = '%s' (restore): %w", SettingLogMinDuration, previous, err)
	}
	if err := s.db.ReloadConf(ctx); err != nil {
		return fmt.Errorf("pg_reload_conf() during restore: %w", err)
	}
	return nil
}
