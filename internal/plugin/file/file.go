// Package file serves log repositories stored as plain-text files on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/logtail"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/parser"
	"github.com/five82/logbook/internal/plugin"
)

// ID is the plugin id repositories use to select this backend.
const ID = "file"

// Descriptor describes the file plugin.
func Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          ID,
		Name:        "Log files",
		Description: "Reads log files matching a path or glob pattern",
	}
}

// Factory returns a plugin.Factory that builds file plugins logging to log.
func Factory(log *logrus.Entry) plugin.Factory {
	return func(repo config.Repository) (plugin.Plugin, error) {
		return New(repo, log)
	}
}

var (
	_ plugin.Plugin   = (*Plugin)(nil)
	_ plugin.Listener = (*Plugin)(nil)
)

// Plugin reads rows from every file matching the repository's pattern.
type Plugin struct {
	name    string
	pattern string
	maxRows int
	parser  parser.Parser
	log     *logrus.Entry
}

// New builds a file plugin. Connection is a file, a directory combined with
// Pattern, or a glob such as /var/log/app/**/*.log.
func New(repo config.Repository, log *logrus.Entry) (*Plugin, error) {
	if strings.TrimSpace(repo.Connection) == "" {
		return nil, errors.New("connection is empty")
	}
	p, err := parser.New(repo.Format)
	if err != nil {
		return nil, err
	}
	pattern := config.MustExpand(repo.Connection)
	if strings.TrimSpace(repo.Pattern) != "" {
		pattern = filepath.Join(pattern, strings.TrimSpace(repo.Pattern))
	}
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	return &Plugin{
		name:    repo.Name,
		pattern: pattern,
		maxRows: repo.MaxRows,
		parser:  p,
		log:     log.WithField("repository", repo.Name),
	}, nil
}

func (p *Plugin) RepositoryName() string { return p.name }

// GetDays returns the distinct dates found across all matching files, newest
// first.
func (p *Plugin) GetDays(ctx context.Context) ([]time.Time, error) {
	rows, err := p.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.DistinctDays(rows), nil
}

// GetLogs returns the rows of day in file order.
func (p *Plugin) GetLogs(ctx context.Context, day time.Time) ([]model.LogRow, error) {
	rows, err := p.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.RowsOn(rows, day), nil
}

// TryGetFile reports the backing file when the pattern matches exactly one.
func (p *Plugin) TryGetFile() (string, bool) {
	files, err := p.files()
	if err != nil || len(files) != 1 {
		return "", false
	}
	return files[0], true
}

// CanListen is true while at least one file matches.
func (p *Plugin) CanListen() bool {
	files, err := p.files()
	return err == nil && len(files) > 0
}

// followIdle is how long the newest entry of a followed file is held back
// waiting for continuation lines.
const followIdle = 250 * time.Millisecond

// Listen follows the matching files and emits parsed rows as they are
// appended. Continuation lines are folded into their entry exactly as on a
// full read, so an entry is emitted once the next one starts or the file has
// been quiet for followIdle.
func (p *Plugin) Listen(ctx context.Context) (<-chan []model.LogRow, error) {
	files, err := p.files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %s", p.pattern)
	}
	lines, err := logtail.Follow(ctx, files, p.log)
	if err != nil {
		return nil, err
	}

	out := make(chan []model.LogRow)
	go func() {
		defer close(out)
		f := newFollower(p.parser)
		idle := time.NewTimer(followIdle)
		idle.Stop()
		defer idle.Stop()

		send := func(rows []model.LogRow) bool {
			if len(rows) == 0 {
				return true
			}
			select {
			case out <- rows:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-idle.C:
				if !send(f.flush()) {
					return
				}
			case line, ok := <-lines:
				if !ok {
					send(f.flush())
					return
				}
				batch := []logtail.Line{line}
			drain:
				for {
					select {
					case more, ok := <-lines:
						if !ok {
							break drain
						}
						batch = append(batch, more)
					default:
						break drain
					}
				}

				rows := f.add(batch)
				if f.holding() {
					idle.Reset(followIdle)
				}
				if !send(rows) {
					return
				}
			}
		}
	}()
	return out, nil
}

// follower folds followed lines per file, holding each file's newest entry
// until it is known to be complete.
type follower struct {
	parser  parser.Parser
	pending map[string]*model.LogRow
}

func newFollower(p parser.Parser) *follower {
	return &follower{parser: p, pending: make(map[string]*model.LogRow)}
}

// add folds lines and returns the entries they completed. Continuations of an
// entry that was already flushed are dropped.
func (f *follower) add(lines []logtail.Line) []model.LogRow {
	var done []model.LogRow
	for _, line := range lines {
		if row, ok := f.parser.Parse(line.Text); ok {
			if prev, held := f.pending[line.Path]; held {
				done = append(done, *prev)
			}
			f.pending[line.Path] = &row
			continue
		}
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		if prev, held := f.pending[line.Path]; held {
			prev.Message += "\n" + line.Text
		}
	}
	return done
}

func (f *follower) holding() bool {
	return len(f.pending) > 0
}

// flush returns every held entry, ordered by path.
func (f *follower) flush() []model.LogRow {
	if len(f.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(f.pending))
	for path := range f.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	rows := make([]model.LogRow, 0, len(paths))
	for _, path := range paths {
		rows = append(rows, *f.pending[path])
	}
	clear(f.pending)
	return rows
}

func (p *Plugin) files() ([]string, error) {
	matches, err := doublestar.FilepathGlob(p.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", p.pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (p *Plugin) readAll(ctx context.Context) ([]model.LogRow, error) {
	files, err := p.files()
	if err != nil {
		return nil, err
	}
	var rows []model.LogRow
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := logtail.Read(path, p.maxRows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		parsed, skipped := p.fold(lines)
		if skipped > 0 {
			p.log.WithFields(logrus.Fields{"path": path, "skipped": skipped}).Debug("lines before first entry ignored")
		}
		rows = append(rows, parsed...)
	}
	return rows, nil
}

// fold parses lines into rows, appending continuation lines (stack traces,
// wrapped messages) to the previous row. Lines before the first entry are
// counted as skipped.
func (p *Plugin) fold(lines []string) ([]model.LogRow, int) {
	rows := make([]model.LogRow, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		if row, ok := p.parser.Parse(line); ok {
			rows = append(rows, row)
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(rows) == 0 {
			skipped++
			continue
		}
		rows[len(rows)-1].Message += "\n" + line
	}
	return rows, skipped
}
