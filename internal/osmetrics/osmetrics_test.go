package osmetrics

import (
	"strings"
	"testing"
)

const procStatFixture = `cpu  279636906 4726 78336978 3235679806 2933684 0 1554942 10000 0 0
cpu0 34762241 591 9792809 404417618 366632 0 194367 0 0 0
intr 12933434123 33 10 0 0
`

const memInfoFixture = `MemTotal:       65505340 kB
MemFree:         2338504 kB
MemAvailable:   50882588 kB
Buffers:         3108404 kB
SwapTotal:       8388604 kB
SwapFree:        8252156 kB
`

func TestParseCPUStat(t *testing.T) {
	stat := ParseCPUStat(procStatFixture)
	if stat == nil {
		t.Fatal("expected cpu line parsed")
	}
	if stat.User != 279636906 {
		t.Errorf("user: got %d", stat.User)
	}
	if stat.Idle != 3235679806 {
		t.Errorf("idle: got %d", stat.Idle)
	}
	if stat.IOWait != 2933684 {
		t.Errorf("iowait: got %d", stat.IOWait)
	}
	if stat.Steal != 10000 {
		t.Errorf("steal: got %d", stat.Steal)
	}
}

func TestParseCPUStat_ShortLineStillParses(t *testing.T) {
	stat := ParseCPUStat("cpu 1 2 3 4\n")
	if stat == nil {
		t.Fatal("four counters are enough")
	}
	if stat.IOWait != 0 || stat.Steal != 0 {
		t.Errorf("missing trailing counters should be zero, got %+v", stat)
	}
}

func TestParseCPUStat_Garbage(t *testing.T) {
	for _, content := range []string{"", "intr 1 2 3 4 5\n", "cpu a b c d\n"} {
		if got := ParseCPUStat(content); got != nil {
			t.Errorf("ParseCPUStat(%q): expected nil, got %+v", content, got)
		}
	}
}

func TestParseMemInfo(t *testing.T) {
	mem := ParseMemInfo(memInfoFixture)
	if mem == nil {
		t.Fatal("expected meminfo parsed")
	}
	if mem.MemTotalKB != 65505340 {
		t.Errorf("MemTotal: got %d", mem.MemTotalKB)
	}
	if mem.MemAvailableKB != 50882588 {
		t.Errorf("MemAvailable: got %d", mem.MemAvailableKB)
	}
	if mem.SwapFreeKB != 8252156 {
		t.Errorf("SwapFree: got %d", mem.SwapFreeKB)
	}
}

func TestParseMemInfo_MissingAvailable(t *testing.T) {
	if got := ParseMemInfo("MemTotal: 1024 kB\n"); got != nil {
		t.Errorf("expected nil without MemAvailable, got %+v", got)
	}
}

func TestParseLoadAverage(t *testing.T) {
	load := ParseLoadAverage("1.52 0.97 0.88 3/1245 98123\n")
	if load == nil {
		t.Fatal("expected loadavg parsed")
	}
	if load.One != 1.52 || load.Five != 0.97 || load.Fifteen != 0.88 {
		t.Errorf("unexpected averages: %+v", load)
	}
	if load.RunningTasks != "3/1245" {
		t.Errorf("running tasks: got %q", load.RunningTasks)
	}
	if load.LastPID != 98123 {
		t.Errorf("last pid: got %d", load.LastPID)
	}
}

func TestParseLoadAverage_Garbage(t *testing.T) {
	if got := ParseLoadAverage("not a loadavg line"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestTruncateOutput(t *testing.T) {
	long := strings.Repeat("x", maxCommandOutputChars+100)
	got := truncateOutput(long)
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Error("expected truncation marker")
	}
	if len(got) > maxCommandOutputChars+20 {
		t.Errorf("truncated output still too long: %d", len(got))
	}
	if truncateOutput("short") != "short" {
		t.Error("short output must pass through unchanged")
	}
}

func TestRunSample_MissingBinary(t *testing.T) {
	sample := runSample("definitely-not-a-real-binary-xyz")
	if sample.Available {
		t.Error("missing binary must be marked unavailable")
	}
	if sample.Error == nil || *sample.Error != "command not found" {
		t.Errorf("unexpected error: %v", sample.Error)
	}
	if sample.StatusCode != nil {
		t.Errorf("expected nil status code, got %d", *sample.StatusCode)
	}
}

func TestHasAnyMetric(t *testing.T) {
	var empty Snapshot
	if empty.HasAnyMetric() {
		t.Error("empty snapshot reports no metrics")
	}
	withProc := Snapshot{ProcCPU: &CPUStat{}}
	if !withProc.HasAnyMetric() {
		t.Error("proc cpu alone is enough")
	}
	withSampler := Snapshot{VMStat: &CommandSample{Command: "vmstat", Available: true}}
	if !withSampler.HasAnyMetric() {
		t.Error("available sampler alone is enough")
	}
	unavailableSampler := Snapshot{VMStat: &CommandSample{Command: "vmstat"}}
	if unavailableSampler.HasAnyMetric() {
		t.Error("unavailable sampler does not count")
	}
}
