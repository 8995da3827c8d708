// Package resultfile owns the on-disk lifecycle of one input file's result
// table: deterministic result naming, load-for-resume, and backup-before-save.
package resultfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/msageha/mgapi/internal/table"
)

// Backup timestamps sort lexicographically in wall-clock order.
const backupTimestampLayout = "20060102_150405"

// Store manages the result file for one input path. The caller must ensure
// at most one Store is active per input path; see the lock package.
type Store struct {
	input string
	now   func() time.Time
}

func NewStore(input string) *Store {
	return &Store{input: input, now: time.Now}
}

// ResultPath returns `<stem>.result<ext>` beside the given input path. Pure
// function of the path; collision-free across inputs with distinct stems.
func ResultPath(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	return filepath.Join(filepath.Dir(input), base+".result"+ext)
}

func (s *Store) ResultPath() string {
	return ResultPath(s.input)
}

// LoadForResume loads the result file when one exists, so prior outcomes are
// preserved, and falls back to the raw input otherwise. resumed reports which
// path was taken.
func (s *Store) LoadForResume(required []string) (tbl *table.Table, resumed bool, err error) {
	resultPath := s.ResultPath()
	if _, statErr := os.Stat(resultPath); statErr == nil {
		tbl, err = table.Load(resultPath, required)
		return tbl, true, err
	}
	tbl, err = table.Load(s.input, required)
	return tbl, false, err
}

// Save writes the full table to the result path, backing up any existing
// result file to `<result>.backup.<timestamp>` first. A backup failure aborts
// the save. The write goes through a temp file in the same directory, is
// re-read and parse-checked, then renamed over the target.
func (s *Store) Save(tbl *table.Table) (string, error) {
	content, err := tbl.Encode()
	if err != nil {
		return "", fmt.Errorf("encode table: %w", err)
	}

	target := s.ResultPath()
	dir := filepath.Dir(target)

	tmp, err := os.CreateTemp(dir, ".mgapi-tmp-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		// Clean up temp file on any failure
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	// Validate written content by re-reading the temp file
	written, err := os.ReadFile(tmpName)
	if err != nil {
		return "", fmt.Errorf("read temp file for validation: %w", err)
	}
	if err := validateCSV(written); err != nil {
		return "", fmt.Errorf("csv validation failed: %w", err)
	}

	// Backup the existing result before overwriting. A failed backup aborts
	// the save rather than risking the prior run's outcomes.
	if _, err := os.Stat(target); err == nil {
		backupPath := fmt.Sprintf("%s.backup.%s", target, s.now().Format(backupTimestampLayout))
		if err := copyFile(target, backupPath); err != nil {
			return "", fmt.Errorf("create backup: %w", err)
		}
	}

	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("atomic rename: %w", err)
	}

	return target, nil
}

func validateCSV(content []byte) error {
	r := csv.NewReader(bytes.NewReader(content))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	for {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
