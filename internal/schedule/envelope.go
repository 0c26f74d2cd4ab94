package schedule

import (
	"time"

	"github.com/luckyjian/sqlinsight/internal/level"
)

// ContractVersion identifies the unified record schema.
const ContractVersion = "v1"

// Status is the outcome of an attempt or a whole cycle.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Attempt traces one bounded collection attempt within a cycle.
type Attempt struct {
	Index      int       `json:"index"`
	Status     Status    `json:"status"`
	Error      *string   `json:"error"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Window bounds the whole attempt loop of a cycle, not a single attempt.
type Window struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
}

// Record is the unified result envelope, one object per cycle. It is always
// well formed for a completed cycle, even when every attempt failed (payload
// null, error populated).
type Record struct {
	ContractVersion  string          `json:"contract_version"`
	RunID            string          `json:"run_id"`
	Cycle            int             `json:"cycle"`
	Engine           level.Engine    `json:"engine"`
	RequestedLevel   string          `json:"requested_level"`
	SelectedLevel    string          `json:"selected_level"`
	DowngradeReasons []string        `json:"downgrade_reasons,omitempty"`
	Schedule         Config          `json:"schedule"`
	Window           Window          `json:"window"`
	Attempts         []Attempt       `json:"attempts"`
	SourceStatus     map[string]bool `json:"source_status"`
	Warnings         []string        `json:"warnings"`
	Status           Status          `json:"status"`
	Error            *string         `json:"error"`
	Payload          any             `json:"payload"`
}

// CycleResult is what one successful collection attempt hands back to the
// scheduler for envelope assembly.
type CycleResult struct {
	SelectedLevel    level.Level
	DowngradeReasons []string
	SourceStatus     map[string]bool
	Warnings         []string
	Payload          any
}
