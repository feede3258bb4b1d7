// Package notify keeps a bounded, timestamped feed of user-facing outcomes.
package notify

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

type Category string

const (
	Info    Category = "info"
	Success Category = "success"
	Warning Category = "warning"
	Error   Category = "error"
)

// Entry is one notification.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Signature string    `json:"signature,omitempty"`
}

// Stats counts posted entries.
type Stats struct {
	Total      uint64
	Spilled    uint64
	ByCategory map[Category]uint64
}

// Feed is a thread-safe ring buffer. When a spill path is configured,
// entries pushed out of the ring are appended to it as JSON lines.
type Feed struct {
	mu           sync.Mutex
	ring         []Entry
	maxSize      int
	currentIndex int
	wrapped      bool
	spillFile    *os.File
	spillWriter  *bufio.Writer
	logger       *zap.Logger
	now          func() time.Time

	totalEntries   uint64
	spilledEntries uint64
	byCategory     map[Category]uint64
}

// NewFeed creates a feed holding maxSize entries. spillPath may be empty.
func NewFeed(maxSize int, spillPath string, logger *zap.Logger) (*Feed, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("feed size must be positive, got %d", maxSize)
	}
	f := &Feed{
		ring:       make([]Entry, maxSize),
		maxSize:    maxSize,
		logger:     logger.Named("notify"),
		now:        time.Now,
		byCategory: make(map[Category]uint64),
	}
	if spillPath == "" {
		return f, nil
	}

	if err := os.MkdirAll(filepath.Dir(spillPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create notification directory: %w", err)
	}
	file, err := os.OpenFile(spillPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill file: %w", err)
	}
	f.spillFile = file
	f.spillWriter = bufio.NewWriter(file)
	return f, nil
}

// Post appends an entry and returns it with its timestamp set.
func (f *Feed) Post(category Category, title, message string) Entry {
	return f.Add(Entry{Category: category, Title: title, Message: message})
}

// Add appends e, stamping it when Timestamp is zero.
func (f *Feed) Add(e Entry) Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = f.now()
	}
	if f.wrapped {
		f.spill(f.ring[f.currentIndex])
	}

	f.ring[f.currentIndex] = e
	f.currentIndex = (f.currentIndex + 1) % f.maxSize
	if f.currentIndex == 0 {
		f.wrapped = true
	}
	f.totalEntries++
	f.byCategory[e.Category]++
	return e
}

func (f *Feed) spill(e Entry) {
	if f.spillWriter == nil {
		return
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
	if err == nil {
		_, err = f.spillWriter.Write(append(data, '\n'))
	}
	if err != nil {
		f.logger.Error("Failed to spill notification", zap.Error(err))
		return
	}
	f.spilledEntries++
}

// Recent returns up to n entries, newest first. n <= 0 returns everything held.
func (f *Feed) Recent(n int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.currentIndex
	if f.wrapped {
		count = f.maxSize
	}
	if n > 0 && n < count {
		count = n
	}

	out := make([]Entry, 0, count)
	for i := 1; i <= count; i++ {
		idx := (f.currentIndex - i + f.maxSize) % f.maxSize
		out = append(out, f.ring[idx])
	}
	return out
}

func (f *Feed) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	by := make(map[Category]uint64, len(f.byCategory))
	for k, v := range f.byCategory {
		by[k] = v
	}
	return Stats{Total: f.totalEntries, Spilled: f.spilledEntries, ByCategory: by}
}

// Close spills the held entries oldest first and closes the file.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spillFile == nil {
		return nil
	}

	start, count := 0, f.currentIndex
	if f.wrapped {
		start, count = f.currentIndex, f.maxSize
	}
	for i := 0; i < count; i++ {
		f.spill(f.ring[(start+i)%f.maxSize])
	}

	if err := f.spillWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush during close: %w", err)
	}
	err := f.spillFile.Close()
	f.spillFile, f.spillWriter = nil, nil
	if err != nil {
		return fmt.Errorf("failed to close spill file: %w", err)
	}
	return nil
}
