// Package remote serves log repositories exposed by an HTTP log server.
//
// The server provides two endpoints:
//
//	GET /api/days                      {"days":["2024-03-02","2024-03-01"]}
//	GET /api/logs?day=D&since=N&limit=M {"rows":[...],"next":N}
//
// Live tail polls /api/logs with the last cursor.
package remote

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/plugin"
)

// ID is the plugin id repositories use to select this backend.
const ID = "remote"

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

var (
	_ plugin.Plugin   = (*Plugin)(nil)
	_ plugin.Listener = (*Plugin)(nil)
)

// Descriptor describes the remote plugin.
func Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          ID,
		Name:        "Log server",
		Description: "Reads log rows from an HTTP log server",
	}
}

// Factory returns a plugin.Factory that builds remote plugins logging to log.
func Factory(log *logrus.Entry) plugin.Factory {
	return func(repo config.Repository) (plugin.Plugin, error) {
		client, err := NewClient(repo.Connection)
		if err != nil {
			return nil, err
		}
		return New(repo, client, log), nil
	}
}

// Plugin reads rows from a log server.
type Plugin struct {
	name     string
	maxRows  int
	fetcher  Fetcher
	interval time.Duration
	cursor   atomic.Uint64
	log      *logrus.Entry
}

// New builds a remote plugin around fetcher.
func New(repo config.Repository, fetcher Fetcher, log *logrus.Entry) *Plugin {
	return &Plugin{
		name:     repo.Name,
		maxRows:  repo.MaxRows,
		fetcher:  fetcher,
		interval: defaultPollInterval,
		log:      log.WithField("repository", repo.Name),
	}
}

// SetPollInterval overrides the live tail poll interval.
func (p *Plugin) SetPollInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

func (p *Plugin) RepositoryName() string { return p.name }

func (p *Plugin) TryGetFile() (string, bool) { return "", false }

func (p *Plugin) CanListen() bool { return true }

// GetDays returns the server's days newest first. Malformed entries are
// skipped.
func (p *Plugin) GetDays(ctx context.Context) ([]time.Time, error) {
	raw, err := p.fetcher.FetchDays(ctx)
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		day, ok := parseDay(s)
		if !ok {
			p.log.WithField("day", s).Debug("ignoring malformed day")
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

// GetLogs returns the rows of day. The response cursor is kept so a
// following Listen resumes after the loaded rows.
func (p *Plugin) GetLogs(ctx context.Context, day time.Time) ([]model.LogRow, error) {
	batch, err := p.fetcher.FetchLogs(ctx, LogQuery{Day: model.Day(day), Limit: p.maxRows})
	if err != nil {
		return nil, err
	}
	p.cursor.Store(batch.Next)
	return batch.Rows(), nil
}

// Listen polls for rows newer than the last cursor. Failed polls back off
// exponentially up to 30s.
func (p *Plugin) Listen(ctx context.Context) (<-chan []model.LogRow, error) {
	out := make(chan []model.LogRow)
	go func() {
		defer close(out)
		failures := 0
		for {
			wait := p.interval
			batch, err := p.fetcher.FetchLogs(ctx, LogQuery{Since: p.cursor.Load()})
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				failures++
				wait = calculateBackoff(failures, p.interval)
				p.log.WithError(err).WithField("retry_in", wait).Warn("log poll failed")
			default:
				failures = 0
				if batch.Next > 0 {
					p.cursor.Store(batch.Next)
				}
				if rows := batch.Rows(); len(rows) > 0 {
					select {
					case out <- rows:
					case <-ctx.Done():
						return
					}
				}
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return out, nil
}

// calculateBackoff returns the poll delay after consecutive failures:
// interval * 2^failures, capped at maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	backoff := interval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
