// Package workdir owns the on-disk layout of a run. Paths are explicit
// values threaded through calls; nothing here changes the process working
// directory.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	initialDirName  = "initial"
	selectedDirName = "selected"

	checkpointFileName    = "pop_dump.json"
	preselectionFileName  = "preselection_pop_dump.json"
	progressFileName      = "progress.json"
	runConfigCopyFileName = "run_config.json"
)

// Layout resolves paths inside one run's output directory.
type Layout struct {
	Root string
}

// NewLayout creates the run root directory. The root must not already
// exist: a run owns its directory exclusively for its duration.
func NewLayout(root string) (Layout, error) {
	if root == "" {
		return Layout{}, fmt.Errorf("run root is required")
	}
	if err := os.Mkdir(root, 0o755); err != nil {
		return Layout{}, fmt.Errorf("create run root %s: %w", root, err)
	}
	return Layout{Root: root}, nil
}

// OpenLayout wraps an existing run directory, for resume and inspection.
func OpenLayout(root string) (Layout, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Layout{}, fmt.Errorf("open run root %s: %w", root, err)
	}
	if !info.IsDir() {
		return Layout{}, fmt.Errorf("run root %s is not a directory", root)
	}
	return Layout{Root: root}, nil
}

// InitialDir holds generation 0 before optimization.
func (l Layout) InitialDir() string {
	return filepath.Join(l.Root, initialDirName)
}

// GenerationDir holds one generation's working files.
func (l Layout) GenerationDir(generation int) string {
	return filepath.Join(l.Root, strconv.Itoa(generation))
}

// SelectedDir holds the structure files of one generation's survivors.
func (l Layout) SelectedDir(generation int) string {
	return filepath.Join(l.GenerationDir(generation), selectedDirName)
}

// InitialCheckpointPath is the generation-0 population checkpoint.
func (l Layout) InitialCheckpointPath() string {
	return filepath.Join(l.InitialDir(), checkpointFileName)
}

// CheckpointPath is the after-selection checkpoint of a generation.
func (l Layout) CheckpointPath(generation int) string {
	return filepath.Join(l.SelectedDir(generation), checkpointFileName)
}

// PreselectionCheckpointPath is the merged-and-deduplicated checkpoint
// written before survivor selection.
func (l Layout) PreselectionCheckpointPath(generation int) string {
	return filepath.Join(l.GenerationDir(generation), preselectionFileName)
}

// ProgressPath is the run-level progress blob.
func (l Layout) ProgressPath() string {
	return filepath.Join(l.Root, progressFileName)
}

// RunConfigPath is the copy of the run configuration kept with the output.
func (l Layout) RunConfigPath() string {
	return filepath.Join(l.Root, runConfigCopyFileName)
}

// MakeInitialDir creates the generation-0 directory.
func (l Layout) MakeInitialDir() error {
	if err := os.Mkdir(l.InitialDir(), 0o755); err != nil {
		return fmt.Errorf("create initial dir: %w", err)
	}
	return nil
}

// MakeGenerationDirs creates a generation directory and its selected/
// subdirectory. Both may already exist when a resumed run repeats the
// generation it was interrupted in.
func (l Layout) MakeGenerationDirs(generation int) error {
	if err := os.MkdirAll(l.SelectedDir(generation), 0o755); err != nil {
		return fmt.Errorf("create generation dirs %d: %w", generation, err)
	}
	return nil
}

// GenerationDirCount counts the numbered generation directories present.
func (l Layout) GenerationDirCount() (int, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return 0, fmt.Errorf("read run root %s: %w", l.Root, err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err == nil {
			count++
		}
	}
	return count, nil
}
