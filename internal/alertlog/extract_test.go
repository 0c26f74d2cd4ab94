package alertlog

import (
	"testing"

	"github.com/luckyjian/sqlinsight/internal/level"
)

func TestExtract_OneAlertPerCategoryInFileOrder(t *testing.T) {
	lines := []string{
		"InnoDB: Deadlock found when trying to get lock",
		"InnoDB: Starting crash recovery from checkpoint",
		"InnoDB: purge lag increased",
		"replication applier thread stopped with error",
	}

	alerts := Extract(lines, PatternsFor(level.EngineMySQL))

	if len(alerts) != 4 {
		t.Fatalf("expected 4 alerts, got %d: %+v", len(alerts), alerts)
	}
	want := []Category{
		CategoryDeadlock, CategoryCrashRecovery, CategoryPurgeOrVacuum, CategoryReplication,
	}
	for i, category := range want {
		if alerts[i].Category != category {
			t.Errorf("alert[%d]: expected category %s, got %s", i, category, alerts[i].Category)
		}
		if alerts[i].Position != i+1 {
			t.Errorf("alert[%d]: expected position %d, got %d", i, i+1, alerts[i].Position)
		}
	}
}

func TestExtract_NoDeduplication(t *testing.T) {
	lines := []string{
		"InnoDB: Deadlock found when trying to get lock",
		"unrelated informational line",
		"InnoDB: Deadlock found when trying to get lock",
	}

	alerts := Extract(lines, PatternsFor(level.EngineMySQL))

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Position != 1 || alerts[1].Position != 3 {
		t.Errorf("expected positions 1 and 3, got %d and %d",
			alerts[0].Position, alerts[1].Position)
	}
}

func TestExtract_LineMatchingTwoCategories(t *testing.T) {
	lines := []string{"deadlock detected while replication applier was running"}

	alerts := Extract(lines, PatternsFor(level.EngineMySQL))

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts for a dual-category line, got %d", len(alerts))
	}
	if alerts[0].Category != CategoryDeadlock || alerts[1].Category != CategoryReplication {
		t.Errorf("unexpected categories: %+v", alerts)
	}
}

func TestExtract_CaseInsensitive(t *testing.T) {
	lines := []string{"DEADLOCK FOUND when trying to get lock"}

	alerts := Extract(lines, PatternsFor(level.EngineMySQL))
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
}

func TestExtract_PostgresPatterns(t *testing.T) {
	lines := []string{
		"ERROR:  deadlock detected",
		"LOG:  database system was not properly shut down; automatic recovery in progress",
		"LOG:  automatic vacuum of table \"app.public.orders\"",
		"LOG:  started streaming WAL from primary, wal receiver active",
	}

	alerts := Extract(lines, PatternsFor(level.EnginePostgres))

	seen := map[Category]bool{}
	for _, alert := range alerts {
		seen[alert.Category] = true
	}
	for _, category := range Categories {
		if !seen[category] {
			t.Errorf("expected at least one %s alert, got %+v", category, alerts)
		}
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	if alerts := Extract(nil, PatternsFor(level.EngineMySQL)); len(alerts) != 0 {
		t.Errorf("expected no alerts for empty input, got %+v", alerts)
	}
}
