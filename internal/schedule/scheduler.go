package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/luckyjian/sqlinsight/internal/level"
)

// TimeoutError marks an attempt that exceeded its wall-clock bound.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("collection timed out after %dms", e.Timeout.Milliseconds())
}

// CycleFunc runs one collection attempt. Implementations must release any
// held server state (hot-switch restore) on every exit path, including when
// ctx is cancelled by the attempt timeout.
type CycleFunc func(ctx context.Context) (*CycleResult, error)

// EmitFunc receives each completed cycle's envelope.
type EmitFunc func(Record) error

// Scheduler drives collection cycles sequentially. Cycles never overlap: the
// next cycle's attempt loop cannot begin before the previous one, including
// its hot-switch restore, has fully completed.
type Scheduler struct {
	cfg       Config
	engine    level.Engine
	requested level.Level
	runID     string
	log       zerolog.Logger
}

// New allocates a scheduler with a fresh run ID, stable for the process.
func New(cfg Config, engine level.Engine, requested level.Level, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		engine:    engine,
		requested: requested,
		runID:     "run-" + uuid.NewString(),
		log:       log,
	}
}

// RunID returns the scheduler's run identifier.
func (s *Scheduler) RunID() string { return s.runID }

// Run executes cycles until the mode completes, max_cycles is reached, or
// ctx is cancelled. Cancellation is honored at cycle boundaries; a cycle in
// flight finishes (and restores) before Run returns.
func (s *Scheduler) Run(ctx context.Context, run CycleFunc, emit EmitFunc) error {
	for cycle := 1; ; cycle++ {
		record := s.RunCycle(ctx, cycle, run)
		if err := emit(record); err != nil {
			return fmt.Errorf("emit cycle %d record: %w", cycle, err)
		}

		if s.cfg.Mode != RunDaemon {
			return nil
		}
		if s.cfg.MaxCycles > 0 && cycle >= s.cfg.MaxCycles {
			s.log.Info().Int("cycles", cycle).Msg("max cycles reached, stopping")
			return nil
		}

		pause := Jittered(time.Duration(s.cfg.IntervalSecs)*time.Second, s.cfg.JitterPct)
		s.log.Debug().Dur("sleep", pause).Msg("sleeping until next cycle")
		if err := sleepCtx(ctx, pause); err != nil {
			s.log.Info().Msg("stop signal received, shutting down")
			return nil
		}
	}
}

// RunCycle executes the attempt loop for one cycle and assembles its
// envelope. Every attempt outcome is recorded; the record's error is the
// last attempt's error if and only if all attempts failed.
func (s *Scheduler) RunCycle(ctx context.Context, cycle int, run CycleFunc) Record {
	record := Record{
		ContractVersion: ContractVersion,
		RunID:           s.runID,
		Cycle:           cycle,
		Engine:          s.engine,
		RequestedLevel:  s.requested.String(),
		SelectedLevel:   s.requested.String(),
		Schedule:        s.cfg,
		SourceStatus:    map[string]bool{},
		Warnings:        []string{},
		Attempts:        []Attempt{},
	}

	windowStart := time.Now()
	timeout := time.Duration(s.cfg.TimeoutSecs) * time.Second
	backoff := time.Duration(s.cfg.RetryBackoffMs) * time.Millisecond
	maxAttempts := s.cfg.RetryTimes + 1

	var result *CycleResult
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptStart := time.Now()
		result, lastErr = s.runAttempt(ctx, timeout, run)

		trace := Attempt{
			Index:      attempt,
			Status:     StatusOK,
			StartedAt:  attemptStart,
			DurationMs: time.Since(attemptStart).Milliseconds(),
		}
		if lastErr != nil {
			msg := lastErr.Error()
			trace.Status = StatusFailed
			trace.Error = &msg
			s.log.Warn().Int("cycle", cycle).Int("attempt", attempt).
				Err(lastErr).Msg("collection attempt failed")
		}
		record.Attempts = append(record.Attempts, trace)

		if lastErr == nil {
			break
		}
		if attempt < maxAttempts {
			if err := sleepCtx(ctx, backoff); err != nil {
				break
			}
		}
	}

	windowEnd := time.Now()
	record.Window = Window{
		Start:      windowStart,
		End:        windowEnd,
		DurationMs: windowEnd.Sub(windowStart).Milliseconds(),
	}

	if lastErr != nil {
		msg := lastErr.Error()
		record.Status = StatusFailed
		record.Error = &msg
		return record
	}

	record.Status = StatusOK
	record.SelectedLevel = result.SelectedLevel.String()
	record.DowngradeReasons = result.DowngradeReasons
	record.Payload = result.Payload
	if result.SourceStatus != nil {
		record.SourceStatus = result.SourceStatus
	}
	if result.Warnings != nil {
		record.Warnings = result.Warnings
	}
	return record
}

// runAttempt bounds one attempt by the configured wall-clock timeout. The
// attempt goroutine keeps running after a timeout so that deferred cleanup
// (hot-switch restore) still executes; its late result is discarded.
func (s *Scheduler) runAttempt(ctx context.Context, timeout time.Duration, run CycleFunc) (*CycleResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *CycleResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := run(attemptCtx)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-attemptCtx.Done():
		// A dead parent context is a stop signal, not an elapsed timeout.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("collection cancelled before completion: %w", err)
		}
		return nil, &TimeoutError{Timeout: timeout}
	}
}

// Jittered randomizes base by up to +/- pct (clamped to [0, 0.9]), with a
// one second floor so daemon cycles cannot spin.
func Jittered(base time.Duration, pct float64) time.Duration {
	if base <= 0 {
		return 0
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 0.9 {
		pct = 0.9
	}
	span := float64(base) * pct
	if span == 0 {
		return base
	}
	offset := (rand.Float64()*2 - 1) * span
	jittered := time.Duration(float64(base) + offset)
	if jittered < time.Second {
		jittered = time.Second
	}
	return jittered
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
