package repl

import (
	"bufio"
	"log/slog"
	"os"
)

// History is the REPL's persistent input history (spec §4.5
// "History"): deduplicated with move-to-end on repeat, capped at a
// maximum count, loaded on startup and saved on every append.
type History struct {
	path    string
	maxSize int
	entries []string
}

// LoadHistory reads path if present; a missing or corrupt file yields an
// empty history rather than an error, matching the REPL's general
// tolerance for a damaged home directory.
func LoadHistory(path string, maxSize int) *History {
	h := &History{path: path, maxSize: maxSize}
	f, err := os.Open(path)
	if err != nil {
		return h
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.entries = append(h.entries, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("history file unreadable, starting empty", "path", path, "error", err)
		h.entries = nil
	}
	return h
}

// Entries returns the history in oldest-to-newest order.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Append records cmd, deduplicating by moving an existing identical
// entry to the end, then trims to maxSize and persists.
func (h *History) Append(cmd string) error {
	for i, e := range h.entries {
		if e == cmd {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, cmd)
	if h.maxSize > 0 && len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
	return h.save()
}

func (h *History) save() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Create(h.path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, e := range h.entries {
		if _, err := w.WriteString(e); err != nil {
			return err
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
