package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// errSameFile is returned when the output path would overwrite the input.
var errSameFile = errors.New("output path must differ from input path")

// defaultOutputPath returns "<base>_<suffix><ext>" next to in. An empty ext
// keeps the input's extension.
func defaultOutputPath(in, suffix, ext string) string {
	inExt := filepath.Ext(in)
	if ext == "" {
		ext = inExt
	}
	return strings.TrimSuffix(in, inExt) + "_" + suffix + ext
}

// checkDistinct rejects an output that resolves to the input file.
func checkDistinct(in, out string) error {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	if absIn == absOut {
		return errSameFile
	}

	inInfo, err := os.Stat(in)
	if err != nil {
		return err
	}
	outInfo, err := os.Stat(out)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if os.SameFile(inInfo, outInfo) {
		return errSameFile
	}
	return nil
}

// writeFileAtomic writes through a temp file in the destination directory
// and renames it into place. On failure nothing is left at path.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docmask-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
