package hotswitch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/luckyjian/sqlinsight/internal/level"
)

// MySQL setting names managed by the hot switch.
const (
	SettingSlowQueryLog  = "slow_query_log"
	SettingLongQueryTime = "long_query_time"
)

// MySQLDB abstracts the two statements the MySQL hot switch needs.
// This interface enables unit testing with mocks.
type MySQLDB interface {
	Variable(ctx context.Context, name string) (string, error)
	SetGlobal(ctx context.Context, name, value string) error
}

// MySQLStrategy toggles slow_query_log and lowers long_query_time for the
// capture window via SET GLOBAL.
type MySQLStrategy struct {
	db                MySQLDB
	longQueryTimeSecs float64
}

// NewMySQLStrategy returns a strategy that enables the slow log with the
// given long_query_time threshold.
func NewMySQLStrategy(db MySQLDB, longQueryTimeSecs float64) *MySQLStrategy {
	return &MySQLStrategy{db: db, longQueryTimeSecs: longQueryTimeSecs}
}

func (s *MySQLStrategy) Engine() level.Engine { return level.EngineMySQL }

func (s *MySQLStrategy) Snapshot(ctx context.Context) (Settings, error) {
	slowLog, err := s.db.Variable(ctx, SettingSlowQueryLog)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SettingSlowQueryLog, err)
	}
	longTime, err := s.db.Variable(ctx, SettingLongQueryTime)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SettingLongQueryTime, err)
	}
	return Settings{
		SettingSlowQueryLog:  slowLog,
		SettingLongQueryTime: longTime,
	}, nil
}

func (s *MySQLStrategy) Apply(ctx context.Context) error {
	threshold := strconv.FormatFloat(s.longQueryTimeSecs, 'f', 6, 64)
	if err := s.db.SetGlobal(ctx, SettingLongQueryTime, threshold); err != nil {
		return fmt.Errorf("set %s: %w", SettingLongQueryTime, err)
	}
	if err := s.db.SetGlobal(ctx, SettingSlowQueryLog, "ON"); err != nil {
		return fmt.Errorf("enable %s: %w", SettingSlowQueryLog, err)
	}
	return nil
}

func (s *MySQLStrategy) Restore(ctx context.Context, original Settings) error {
	var errs []string

	if previous, ok := original[SettingLongQueryTime]; ok {
		if _, err := strconv.ParseFloat(previous, 64); err != nil {
			errs = append(errs, fmt.Sprintf(
				"skip restoring %s due to non-numeric previous value %q",
				SettingLongQueryTime, previous))
		} else if err := s.db.SetGlobal(ctx, SettingLongQueryTime, previous); err != nil {
			errs = append(errs, fmt.Sprintf("restore %s: %v", SettingLongQueryTime, err))
		}
	}

	if previous, ok := original[SettingSlowQueryLog]; ok {
		target := "OFF"
		if mysqlTruthy(previous) {
			target = "ON"
		}
		if err := s.db.SetGlobal(ctx, SettingSlowQueryLog, target); err != nil {
			errs = append(errs, fmt.Sprintf("restore %s: %v", SettingSlowQueryLog, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func mysqlTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "1", "true":
		return true
	}
	return false
}
