// Package scan holds the file-scanning helpers that populate the panel's
// display tables: lap-time highscores, model checkpoints, and collected-data
// statistics.
package scan

import (
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Lap is one recorded lap time attributed to a training or replay run.
type Lap struct {
	Time float64 `json:"time"`
	Run  string  `json:"run"`
	Date string  `json:"date"`
}

// Highscores walks logsDir for highscores.csv files, keeping rows whose run
// or containing folder matches envName. Results are sorted fastest first.
// Unreadable files and malformed rows are skipped.
func Highscores(logsDir, envName string) ([]Lap, error) {
	var laps []Lap
	err := filepath.WalkDir(logsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || d.Name() != "highscores.csv" {
			return nil
		}
		folder := filepath.Base(filepath.Dir(path))
		laps = append(laps, readHighscores(path, folder, envName)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(laps, func(i, j int) bool { return laps[i].Time < laps[j].Time })
	return laps, nil
}

func readHighscores(path, folder, envName string) []Lap {
	f, err := os.Open(path) // #nosec G304 -- path comes from walking the configured logs dir
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	folderMatches := strings.Contains(folder, envName)

	var laps []Lap
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		runID := field(row, col, "run_id")
		if !folderMatches && !strings.Contains(runID, envName) {
			continue
		}
		lapTime, err := strconv.ParseFloat(field(row, col, "lap_time"), 64)
		if err != nil {
			continue
		}
		laps = append(laps, Lap{
			Time: lapTime,
			Run:  displayRun(runID, folder, folderMatches),
			Date: field(row, col, "timestamp"),
		})
	}
	return laps
}

// displayRun names the run for display: the CSV's run_id when present,
// otherwise the containing folder (shortened to "Exp N" for rl_zoo3-style
// env_name_N folders).
func displayRun(runID, folder string, folderMatches bool) string {
	if runID != "" && runID != "unknown" {
		return runID
	}
	if !folderMatches {
		return "Unknown"
	}
	if i := strings.LastIndexByte(folder, '_'); i >= 0 {
		if _, err := strconv.Atoi(folder[i+1:]); err == nil {
			return "Exp " + folder[i+1:]
		}
	}
	return folder
}

// Runs returns the distinct run names in laps, sorted.
func Runs(laps []Lap) []string {
	seen := make(map[string]struct{}, len(laps))
	for _, l := range laps {
		seen[l.Run] = struct{}{}
	}
	runs := make([]string, 0, len(seen))
	for r := range seen {
		runs = append(runs, r)
	}
	sort.Strings(runs)
	return runs
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
