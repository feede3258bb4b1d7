package notify

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecentNewestFirst(t *testing.T) {
	f, err := NewFeed(3, "", zap.NewNop())
	require.NoError(t, err)

	for _, title := range []string{"a", "b", "c", "d"} {
		f.Post(Info, title, "")
	}

	got := f.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "d", got[0].Title)
	assert.Equal(t, "b", got[2].Title)

	assert.Equal(t, []Entry{got[0], got[1]}, f.Recent(2))
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestRecentBeforeWrap(t *testing.T) {
	f, err := NewFeed(5, "", zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, f.Recent(10))

	f.Post(Success, "one", "")
	f.Post(Error, "two", "")
	got := f.Recent(10)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Title)
}

func TestSpillAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed", "notifications.jsonl")
	f, err := NewFeed(2, path, zap.NewNop())
	require.NoError(t, err)

	f.Post(Info, "first", "")
	f.Post(Warning, "second", "")
	f.Post(Error, "third", "boom")
	require.NoError(t, f.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var titles []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		var e Entry
		require.NoError(t, jsoniter.Unmarshal(sc.Bytes(), &e))
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"first", "second", "third"}, titles)

	st := f.Stats()
	assert.Equal(t, uint64(3), st.Total)
	assert.Equal(t, uint64(3), st.Spilled)
	assert.Equal(t, uint64(1), st.ByCategory[Error])
}

func TestConcurrentPosts(t *testing.T) {
	f, err := NewFeed(16, "", zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				f.Post(Info, "x", "")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(400), f.Stats().Total)
	assert.Len(t, f.Recent(0), 16)
}

func TestInvalidSize(t *testing.T) {
	_, err := NewFeed(0, "", zap.NewNop())
	assert.Error(t, err)
}
