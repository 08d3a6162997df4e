package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsure_CreatesFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "var", "log", "cron.log")

	require.NoError(t, Ensure(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestEnsure_PreservesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cron.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier run\n"), 0644))

	require.NoError(t, Ensure(path))
	require.NoError(t, Ensure(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "earlier run\n", string(data))
}

func TestEnsure_Unwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}
	dir := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(dir, 0500))

	err := Ensure(filepath.Join(dir, "cron.log"))
	assert.Error(t, err)
}

func TestSink_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cron.log")

	sink, err := Open(path)
	require.NoError(t, err)
	_, err = sink.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, sink.Sync())
	require.NoError(t, sink.Close())

	sink, err = Open(path)
	require.NoError(t, err)
	_, err = sink.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
	assert.Equal(t, path, sink.Path())
}

func TestSink_ClosedRejectsWrites(t *testing.T) {
	sink, err := Open(filepath.Join(t.TempDir(), "cron.log"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	_, err = sink.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, sink.Sync(), ErrClosed)
}

func TestSink_ConcurrentWritesKeepEveryLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cron.log")
	sink, err := Open(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				_, _ = fmt.Fprintf(sink, "writer-%d line-%d\n", w, i)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 200)
}
