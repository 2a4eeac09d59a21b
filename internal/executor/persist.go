package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PlotPath is where a rendered figure of a session is written:
// <upload>/plots/<session>/plot[_combined]_<YYYYMMDD_HHMMSS>.png
func PlotPath(uploadDir, sessionID string, combined bool, at time.Time) string {
	name := "plot_"
	if combined {
		name = "plot_combined_"
	}
	name += at.Format("20060102_150405") + ".png"
	return filepath.Join(uploadDir, "plots", sessionID, name)
}

func savePlot(path string, png []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plots directory: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}
