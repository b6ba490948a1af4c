package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget selects files to prune: every regular file in Dir whose
// name matches Pattern (all files when Pattern is empty), minus Exclude.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files matched by targets whose modification time is
// older than retentionDays. Zero or negative retention disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0

	for _, target := range targets {
		if target.Dir == "" {
			continue
		}
		pattern := target.Pattern
		if pattern == "" {
			pattern = "*"
		}
		matches, err := filepath.Glob(filepath.Join(target.Dir, pattern))
		if err != nil {
			continue
		}
		skip := make(map[string]struct{}, len(target.Exclude))
		for _, ex := range target.Exclude {
			if abs, err := filepath.Abs(ex); err == nil {
				skip[abs] = struct{}{}
			}
		}
		for _, path := range matches {
			if abs, err := filepath.Abs(path); err == nil {
				if _, ok := skip[abs]; ok {
					continue
				}
			}
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "retention remove failed; file remains", "retention_remove_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check permissions on the log and work directories"),
					String(FieldImpact, "old file keeps using disk space"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("pruned expired file", String("path", path), String(FieldEventType, "retention_pruned"))
			}
		}
	}
	return removed
}
