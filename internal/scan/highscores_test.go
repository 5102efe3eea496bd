package scan

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeCSV(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "highscores.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestHighscoresSortedFastestFirst(t *testing.T) {
	logs := t.TempDir()
	writeCSV(t, filepath.Join(logs, "sac", "donkey-mountain-track-v0_1"),
		"lap_time,run_id,timestamp\n"+
			"14.52,,2024-01-02 10:00:00\n"+
			"12.10,,2024-01-02 10:01:00\n"+
			"13.33,,2024-01-02 10:02:00\n")

	laps, err := Highscores(logs, "donkey-mountain-track-v0")
	if err != nil {
		t.Fatalf("highscores: %v", err)
	}
	if len(laps) != 3 {
		t.Fatalf("laps = %d, want 3", len(laps))
	}
	if laps[0].Time != 12.10 || laps[1].Time != 13.33 || laps[2].Time != 14.52 {
		t.Fatalf("not fastest first: %+v", laps)
	}
	// Folder is an rl_zoo3 env_name_N dir without a run_id column value.
	if laps[0].Run != "Exp 1" {
		t.Fatalf("run display = %q, want %q", laps[0].Run, "Exp 1")
	}
}

func TestHighscoresFiltersOtherEnvironments(t *testing.T) {
	logs := t.TempDir()
	writeCSV(t, filepath.Join(logs, "sac", "donkey-mountain-track-v0_1"),
		"lap_time,run_id,timestamp\n15.0,,2024-01-01 00:00:00\n")
	writeCSV(t, filepath.Join(logs, "sac", "donkey-warehouse-v0_1"),
		"lap_time,run_id,timestamp\n9.0,,2024-01-01 00:00:00\n")

	laps, err := Highscores(logs, "donkey-mountain-track-v0")
	if err != nil {
		t.Fatalf("highscores: %v", err)
	}
	if len(laps) != 1 || laps[0].Time != 15.0 {
		t.Fatalf("foreign environment leaked in: %+v", laps)
	}
}

func TestHighscoresMatchesByRunID(t *testing.T) {
	logs := t.TempDir()
	// Folder name does not mention the env; the run_id column does.
	writeCSV(t, filepath.Join(logs, "misc"),
		"lap_time,run_id,timestamp\n11.5,donkey-mountain-track-v0_3,2024-01-01 00:00:00\n")

	laps, err := Highscores(logs, "donkey-mountain-track-v0")
	if err != nil {
		t.Fatalf("highscores: %v", err)
	}
	if len(laps) != 1 || laps[0].Run != "donkey-mountain-track-v0_3" {
		t.Fatalf("run_id matching broken: %+v", laps)
	}
}

func TestHighscoresSkipsMalformedRows(t *testing.T) {
	logs := t.TempDir()
	writeCSV(t, filepath.Join(logs, "donkey-mountain-track-v0_2"),
		"lap_time,run_id,timestamp\n"+
			"not-a-number,,2024-01-01 00:00:00\n"+
			"10.5,,2024-01-01 00:00:00\n")

	laps, err := Highscores(logs, "donkey-mountain-track-v0")
	if err != nil {
		t.Fatalf("highscores: %v", err)
	}
	if len(laps) != 1 || laps[0].Time != 10.5 {
		t.Fatalf("malformed row handling: %+v", laps)
	}
}

func TestHighscoresEmptyTree(t *testing.T) {
	laps, err := Highscores(t.TempDir(), "anything")
	if err != nil {
		t.Fatalf("highscores: %v", err)
	}
	if len(laps) != 0 {
		t.Fatalf("laps from empty tree: %+v", laps)
	}
}

func TestRunsDistinctSorted(t *testing.T) {
	laps := []Lap{{Run: "Exp 2"}, {Run: "Exp 1"}, {Run: "Exp 2"}}
	if got := Runs(laps); !slices.Equal(got, []string{"Exp 1", "Exp 2"}) {
		t.Fatalf("runs = %v", got)
	}
}
