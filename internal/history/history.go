// Package history keeps an append-only JSONL log of focal actor selections.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/config"
	"github.com/msalah0e/castgraph/internal/tmdb"
)

// Entry is one focal selection.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	ActorID   int       `json:"actor_id"`
	Name      string    `json:"name"`
	FromYear  int       `json:"from_year,omitempty"`
	ToYear    int       `json:"to_year,omitempty"`
}

// Log is a history file. It is safe for concurrent use within a process.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// DefaultPath is the history file under the config directory.
func DefaultPath() string {
	return filepath.Join(config.ConfigDir(), "history.jsonl")
}

// Open returns a log writing to path.
func Open(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Record appends a selection.
func (l *Log) Record(actor tmdb.Actor, yr aggregate.YearRange) error {
	return l.append(Entry{
		Timestamp: l.now(),
		ActorID:   actor.ID,
		Name:      actor.Name,
		FromYear:  yr.Min,
		ToYear:    yr.Max,
	})
}

func (l *Log) append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, _ := json.Marshal(e)
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the most recent count entries, newest first. A count of zero
// returns everything.
func (l *Log) Read(count int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Search returns entries whose actor name contains query, case-insensitively.
func (l *Log) Search(query string, count int) ([]Entry, error) {
	all, err := l.Read(0)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Name), q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

// Recent returns distinct actors, most recently selected first.
func (l *Log) Recent(count int) ([]Entry, error) {
	all, err := l.Read(0)
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	var out []Entry
	for _, e := range all {
		if seen[e.ActorID] {
			continue
		}
		seen[e.ActorID] = true
		out = append(out, e)
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out, nil
}

// Clear removes the log file.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
