package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Checkpoint is one saved model archive found under the models directory.
type Checkpoint struct {
	File    string    `json:"file"`
	Path    string    `json:"path"`
	Steps   string    `json:"steps"`
	ModTime time.Time `json:"mod_time"`
}

// Checkpoints walks modelsDir for *.zip archives, newest first, limited to
// limit entries (0 means no limit). The step count is parsed from
// rl_zoo3-style "<name>_<N>_steps.zip" filenames; "-" when absent.
func Checkpoints(modelsDir string, limit int) ([]Checkpoint, error) {
	var cps []Checkpoint
	err := filepath.WalkDir(modelsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".zip") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		cps = append(cps, Checkpoint{
			File:    d.Name(),
			Path:    path,
			Steps:   stepsFromName(d.Name()),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i].ModTime.After(cps[j].ModTime) })
	if limit > 0 && len(cps) > limit {
		cps = cps[:limit]
	}
	return cps, nil
}

func stepsFromName(name string) string {
	if !strings.Contains(name, "_steps") {
		return "-"
	}
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if strings.HasPrefix(part, "steps") && i > 0 {
			return parts[i-1]
		}
	}
	return "-"
}
