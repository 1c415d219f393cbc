package file

import (
	"bufio"
	"os"
	"strings"
)

// ReadList reads a text file into its meaningful lines: surrounding
// whitespace is trimmed, blank lines and '#' comment lines are dropped, and
// order is preserved. The error from a missing or unreadable file carries
// the path (os.PathError).
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
