// Package osmetrics captures host-level pressure signals for Level 0:
// /proc counters plus best-effort vmstat/iostat/sar samples.
package osmetrics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const maxCommandOutputChars = 4000

// CPUStat is the aggregate cpu line from /proc/stat.
type CPUStat struct {
	User    uint64 `json:"user"`
	Nice    uint64 `json:"nice"`
	System  uint64 `json:"system"`
	Idle    uint64 `json:"idle"`
	IOWait  uint64 `json:"iowait"`
	IRQ     uint64 `json:"irq"`
	SoftIRQ uint64 `json:"softirq"`
	Steal   uint64 `json:"steal"`
}

// MemInfo is the subset of /proc/meminfo the collector reports.
type MemInfo struct {
	MemTotalKB     uint64 `json:"mem_total_kb"`
	MemAvailableKB uint64 `json:"mem_available_kb"`
	SwapTotalKB    uint64 `json:"swap_total_kb"`
	SwapFreeKB     uint64 `json:"swap_free_kb"`
}

// LoadAverage is the parsed /proc/loadavg content.
type LoadAverage struct {
	One          float64 `json:"one"`
	Five         float64 `json:"five"`
	Fifteen      float64 `json:"fifteen"`
	RunningTasks string  `json:"running_tasks"`
	LastPID      uint64  `json:"last_pid"`
}

// CommandSample is one best-effort external sampler invocation. A missing
// binary marks the sample unavailable rather than failing the collection.
type CommandSample struct {
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	Available  bool     `json:"available"`
	StatusCode *int     `json:"status_code"`
	Output     *string  `json:"output"`
	Error      *string  `json:"error"`
}

// Snapshot is the OS metrics section of a Level 0 report.
type Snapshot struct {
	ProcCPU     *CPUStat       `json:"proc_cpu"`
	ProcMem     *MemInfo       `json:"proc_mem"`
	LoadAverage *LoadAverage   `json:"load_average"`
	VMStat      *CommandSample `json:"vmstat"`
	IOStat      *CommandSample `json:"iostat"`
	Sar         *CommandSample `json:"sar"`
}

// HasAnyMetric reports whether at least one OS source produced data; this is
// the os_metrics_access capability for negotiation.
func (s *Snapshot) HasAnyMetric() bool {
	return s.ProcCPU != nil || s.ProcMem != nil || s.LoadAverage != nil ||
		(s.VMStat != nil && s.VMStat.Available) ||
		(s.IOStat != nil && s.IOStat.Available) ||
		(s.Sar != nil && s.Sar.Available)
}

// Result is a snapshot plus the warnings produced while collecting it.
type Result struct {
	Snapshot Snapshot
	Warnings []string
}

// Collect reads /proc and runs the optional samplers. Individual source
// failures become warnings, never errors.
func Collect() Result {
	var result Result

	if content, err := os.ReadFile("/proc/stat"); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed reading /proc/stat: %v", err))
	} else {
		result.Snapshot.ProcCPU = ParseCPUStat(string(content))
	}
	if content, err := os.ReadFile("/proc/meminfo"); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed reading /proc/meminfo: %v", err))
	} else {
		result.Snapshot.ProcMem = ParseMemInfo(string(content))
	}
	if content, err := os.ReadFile("/proc/loadavg"); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed reading /proc/loadavg: %v", err))
	} else {
		result.Snapshot.LoadAverage = ParseLoadAverage(string(content))
	}

	result.Snapshot.VMStat = runSample("vmstat")
	result.Snapshot.IOStat = runSample("iostat")
	result.Snapshot.Sar = runSample("sar", "-u", "1", "1")
	for _, sample := range []*CommandSample{result.Snapshot.VMStat, result.Snapshot.IOStat, result.Snapshot.Sar} {
		if sample.Available && sample.Error != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s failed: %s", sample.Command, *sample.Error))
		}
	}

	return result
}

// ParseCPUStat parses the aggregate cpu line of /proc/stat.
func ParseCPUStat(content string) *CPUStat {
	line, _, _ := strings.Cut(content, "\n")
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[0] != "cpu" {
		return nil
	}
	parse := func(i int) uint64 {
		if i >= len(fields) {
			return 0
		}
		v, _ := strconv.ParseUint(fields[i], 10, 64)
		return v
	}
	// user..idle are mandatory; the trailing counters appeared in later
	// kernels and default to zero.
	for i := 1; i <= 4; i++ {
		if _, err := strconv.ParseUint(fields[i], 10, 64); err != nil {
			return nil
		}
	}
	return &CPUStat{
		User: parse(1), Nice: parse(2), System: parse(3), Idle: parse(4),
		IOWait: parse(5), IRQ: parse(6), SoftIRQ: parse(7), Steal: parse(8),
	}
}

// ParseMemInfo parses /proc/meminfo key/value lines.
func ParseMemInfo(content string) *MemInfo {
	values := map[string]uint64{}
	for _, line := range strings.Split(content, "\n") {
		key, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		if v, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
			values[strings.TrimSpace(key)] = v
		}
	}
	total, okTotal := values["MemTotal"]
	avail, okAvail := values["MemAvailable"]
	if !okTotal || !okAvail {
		return nil
	}
	return &MemInfo{
		MemTotalKB:     total,
		MemAvailableKB: avail,
		SwapTotalKB:    values["SwapTotal"],
		SwapFreeKB:     values["SwapFree"],
	}
}

// ParseLoadAverage parses /proc/loadavg.
func ParseLoadAverage(content string) *LoadAverage {
	fields := strings.Fields(content)
	if len(fields) < 5 {
		return nil
	}
	one, err1 := strconv.ParseFloat(fields[0], 64)
	five, err2 := strconv.ParseFloat(fields[1], 64)
	fifteen, err3 := strconv.ParseFloat(fields[2], 64)
	lastPID, err4 := strconv.ParseUint(fields[4], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil
	}
	return &LoadAverage{
		One:          one,
		Five:         five,
		Fifteen:      fifteen,
		RunningTasks: fields[3],
		LastPID:      lastPID,
	}
}

func runSample(command string, args ...string) *CommandSample {
	sample := &CommandSample{Command: command, Args: append([]string{}, args...)}

	out, err := exec.Command(command, args...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			sample.Available = true
			code := exitErr.ExitCode()
			sample.StatusCode = &code
			msg := strings.TrimSpace(string(out))
			if msg == "" {
				msg = exitErr.Error()
			}
			sample.Error = &msg
		case errors.Is(err, exec.ErrNotFound):
			msg := "command not found"
			sample.Error = &msg
		default:
			sample.Available = true
			msg := err.Error()
			sample.Error = &msg
		}
		return sample
	}

	sample.Available = true
	zero := 0
	sample.StatusCode = &zero
	if text := truncateOutput(strings.TrimSpace(string(out))); text != "" {
		sample.Output = &text
	}
	return sample
}

func truncateOutput(text string) string {
	if len(text) <= maxCommandOutputChars {
		return text
	}
	return text[:maxCommandOutputChars] + "\n...[truncated]"
}
