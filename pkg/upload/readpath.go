package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spoolworks/reel/pkg/trajectory"
)

// ReadPath loads a trajectory file from disk outside the drop flow, for CLI
// use. A .jsonl file is returned as verbatim text; anything else is parsed
// and classified like a dropped file.
func ReadPath(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return Content{
			FileType:     "jsonl",
			JSONLContent: string(data),
		}, nil
	}

	normalized, err := trajectory.ParseJSON(data)
	if err != nil {
		return Content{}, fmt.Errorf("file %s is not valid JSON: %w", filepath.Base(path), err)
	}

	return Content{
		FileType:   "trajectory",
		Trajectory: &normalized,
	}, nil
}
