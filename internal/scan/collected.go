package scan

import (
	"os"
	"path/filepath"
	"strings"
)

// DataStats summarizes one collection run's recorded images.
type DataStats struct {
	Count      int   `json:"count"`
	TotalBytes int64 `json:"total_bytes"`
}

// CollectedData counts image files under <outputDir>/images. A missing
// directory yields zero stats, not an error.
func CollectedData(outputDir string) (DataStats, error) {
	imagesDir := filepath.Join(outputDir, "images")
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return DataStats{}, nil
		}
		return DataStats{}, err
	}
	var st DataStats
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			info, err := e.Info()
			if err != nil {
				continue
			}
			st.Count++
			st.TotalBytes += info.Size()
		}
	}
	return st, nil
}
