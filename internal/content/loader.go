// Package content reads the study outline that schedules are generated from.
package content

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ErrNotFound is returned when the outline file does not exist.
var ErrNotFound = fmt.Errorf("outline file: %w", fs.ErrNotExist)

// Load reads one topic per non-blank line from path, trimmed, in file order.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("opening outline: %w", err)
	}
	defer f.Close()

	topics, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading outline %s: %w", path, err)
	}
	return topics, nil
}

// Parse reads topics from r with the same rules as Load.
func Parse(r io.Reader) ([]string, error) {
	var topics []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		topics = append(topics, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return topics, nil
}
