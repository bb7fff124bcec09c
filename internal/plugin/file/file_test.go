package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/logging"
	"github.com/five82/logbook/internal/logtail"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/plugin"
)

const appLog = `2024-03-01 09:00:00,000 [1] INFO App.Web - started
2024-03-01 09:05:00,000 [2] ERROR App.Db - query failed
   at App.Db.Run()
   at App.Main()

2024-03-02 10:00:00,000 [1] WARN App.Web - slow request
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newPlugin(t *testing.T, repo config.Repository) *Plugin {
	t.Helper()
	if repo.Name == "" {
		repo.Name = "App"
	}
	repo.PluginID = ID
	p, err := New(repo, logging.Component(nil, "test"))
	require.NoError(t, err)
	return p
}

func local(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestGetDaysAndLogs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", appLog)
	p := newPlugin(t, config.Repository{Connection: path})

	days, err := p.GetDays(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.True(t, days[0].Equal(local(2024, 3, 2)))
	assert.True(t, days[1].Equal(local(2024, 3, 1)))

	rows, err := p.GetLogs(context.Background(), local(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "query failed\n   at App.Db.Run()\n   at App.Main()", rows[1].Message)
	assert.Equal(t, model.LevelError, rows[1].Level)

	file, ok := p.TryGetFile()
	assert.True(t, ok)
	assert.Equal(t, path, file)
	assert.True(t, p.CanListen())
	assert.Equal(t, "App", p.RepositoryName())
}

func TestGlobAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/app-1.log", "2024-03-01 09:00:00 [1] INFO A - one\n")
	writeFile(t, dir, "b/app-2.log", "2024-03-01 10:00:00 [1] INFO B - two\n")
	writeFile(t, dir, "b/notes.txt", "2024-03-05 10:00:00 [1] INFO C - ignored\n")

	p := newPlugin(t, config.Repository{Connection: dir, Pattern: "**/*.log"})

	rows, err := p.GetLogs(context.Background(), local(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "one", rows[0].Message)
	assert.Equal(t, "two", rows[1].Message)

	_, ok := p.TryGetFile()
	assert.False(t, ok, "two files match")
}

func TestMaxRowsBoundsRead(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", appLog)
	p := newPlugin(t, config.Repository{Connection: path, MaxRows: 1})

	days, err := p.GetDays(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.True(t, days[0].Equal(local(2024, 3, 2)))
}

func TestNoMatches(t *testing.T) {
	p := newPlugin(t, config.Repository{Connection: filepath.Join(t.TempDir(), "*.log")})

	days, err := p.GetDays(context.Background())
	require.NoError(t, err)
	assert.Empty(t, days)
	assert.False(t, p.CanListen())

	_, err = p.Listen(context.Background())
	assert.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.log", appLog)
	p := newPlugin(t, config.Repository{Connection: path})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GetDays(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewErrors(t *testing.T) {
	log := logging.Component(nil, "test")
	_, err := New(config.Repository{}, log)
	assert.Error(t, err)
	_, err = New(config.Repository{Connection: "/tmp/x.log", Format: "xml"}, log)
	assert.Error(t, err)
	_, err = New(config.Repository{Connection: "/tmp/[.log"}, log)
	assert.Error(t, err)
}

func TestFollower_FoldsAcrossBatches(t *testing.T) {
	p := newPlugin(t, config.Repository{Connection: "/tmp/app.log"})
	f := newFollower(p.parser)

	rows := f.add([]logtail.Line{
		{Path: "/a", Text: "2024-03-01 09:00:00 [1] ERROR Db - boom"},
		{Path: "/a", Text: "  at Db.Open()"},
		{Path: "/b", Text: "orphan without history"},
	})
	assert.Empty(t, rows, "the newest entry is held until complete")
	assert.True(t, f.holding())

	rows = f.add([]logtail.Line{{Path: "/a", Text: "  at Main()"}})
	assert.Empty(t, rows)

	rows = f.add([]logtail.Line{{Path: "/a", Text: "2024-03-01 09:00:01 [1] INFO Db - recovered"}})
	require.Len(t, rows, 1)
	assert.Equal(t, model.LevelError, rows[0].Level)
	assert.Equal(t, "boom\n  at Db.Open()\n  at Main()", rows[0].Message)

	rows = f.flush()
	require.Len(t, rows, 1)
	assert.Equal(t, "recovered", rows[0].Message)
	assert.False(t, f.holding())
	assert.Nil(t, f.flush())
}

func TestFollower_MatchesFullRead(t *testing.T) {
	p := newPlugin(t, config.Repository{Connection: "/tmp/app.log"})
	lines := []string{
		"2024-03-01 09:05:00,000 [2] ERROR App.Db - query failed",
		"   at App.Db.Run()",
		"   at App.Main()",
		"2024-03-01 09:06:00,000 [2] INFO App.Db - retried",
	}
	want, _ := p.fold(lines)

	// One line per write, as a slow writer would produce.
	f := newFollower(p.parser)
	var got []model.LogRow
	for _, line := range lines {
		got = append(got, f.add([]logtail.Line{{Path: "/a", Text: line}})...)
	}
	got = append(got, f.flush()...)

	assert.Equal(t, want, got)
}

func TestFollower_FlushOrdersByPath(t *testing.T) {
	p := newPlugin(t, config.Repository{Connection: "/tmp/app.log"})
	f := newFollower(p.parser)

	f.add([]logtail.Line{
		{Path: "/b", Text: "2024-03-01 09:00:00 [1] INFO B - second"},
		{Path: "/a", Text: "2024-03-01 09:00:00 [1] INFO A - first"},
	})

	rows := f.flush()
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0].Message)
	assert.Equal(t, "second", rows[1].Message)
}

func TestListenFoldsContinuationWrittenLater(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.log", appLog)
	p := newPlugin(t, config.Repository{Connection: path})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches, err := p.Listen(ctx)
	require.NoError(t, err)

	appendLine := func(line string) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString(line + "\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	appendLine("2024-03-02 11:00:00,000 [3] ERROR App - boom")
	time.Sleep(followIdle / 5)
	appendLine("    at Foo.bar(Foo.java:1)")

	select {
	case rows := <-batches:
		require.Len(t, rows, 1)
		assert.Equal(t, model.LevelError, rows[0].Level)
		assert.Equal(t, "boom\n    at Foo.bar(Foo.java:1)", rows[0].Message)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for live rows")
	}
}

func TestListenEmitsAppendedRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.log", appLog)
	p := newPlugin(t, config.Repository{Connection: path})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches, err := p.Listen(ctx)
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("2024-03-02 11:00:00,000 [3] INFO App.Web - live\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case rows := <-batches:
		require.NotEmpty(t, rows)
		assert.Equal(t, "live", rows[0].Message)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for live rows")
	}
}

func TestFactory(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register(Descriptor(), Factory(logging.Component(nil, "test")))

	p, err := r.Build(config.Repository{Name: "App", PluginID: ID, Connection: "/tmp/app.log"})
	require.NoError(t, err)
	assert.Equal(t, "App", p.RepositoryName())
}
