// Package utils holds small shared helpers with no home of their own.
package utils

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadIndexFile parses a work-unit index list: one non-negative integer
// per line, blank lines and #-comments ignored.
func ReadIndexFile(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read index file %s: %w", path, err)
	}
	defer f.Close()

	var indices []int64
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("read index file %s: line %d: invalid index %q", path, line, text)
		}
		indices = append(indices, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index file %s: %w", path, err)
	}
	return indices, nil
}

// WriteIndexFile writes an index list in the format ReadIndexFile parses.
// The comment, if any, goes into a # header line.
func WriteIndexFile(path, comment string, indices []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write index file %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if comment != "" {
		fmt.Fprintf(w, "# %s\n", comment)
	}
	for _, v := range indices {
		fmt.Fprintf(w, "%d\n", v)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write index file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write index file %s: %w", path, err)
	}
	return nil
}
