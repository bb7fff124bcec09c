// Package sqldb serves log repositories stored in a SQL table. SQLite
// (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported.
//
// The table must provide the columns logged_at, thread, logger, level and
// message. logged_at may be a native timestamp or ISO text.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/model"
	"github.com/five82/logbook/internal/plugin"
)

// ID is the plugin id repositories use to select this backend.
const ID = "sqldb"

// Supported dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const (
	defaultTable = "logs"
	sqliteTime   = "2006-01-02 15:04:05"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var _ plugin.Plugin = (*Plugin)(nil)

// Descriptor describes the SQL plugin.
func Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          ID,
		Name:        "SQL database",
		Description: "Reads log rows from a SQLite or PostgreSQL table",
	}
}

// Factory returns a plugin.Factory that builds SQL plugins logging to log.
func Factory(log *logrus.Entry) plugin.Factory {
	return func(repo config.Repository) (plugin.Plugin, error) {
		return New(repo, log)
	}
}

// Plugin reads rows from one table.
type Plugin struct {
	name    string
	dialect string
	table   string
	maxRows int
	db      *sql.DB
	log     *logrus.Entry
}

// New opens the repository's database. The connection is established lazily
// on first query.
func New(repo config.Repository, log *logrus.Entry) (*Plugin, error) {
	dialect := strings.ToLower(strings.TrimSpace(repo.Dialect))
	if dialect == "" {
		dialect = DialectSQLite
	}
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported dialect %q", repo.Dialect)
	}
	table := strings.TrimSpace(repo.Table)
	if table == "" {
		table = defaultTable
	}
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", repo.Table)
	}
	dsn := strings.TrimSpace(repo.Connection)
	if dsn == "" {
		return nil, errors.New("connection is empty")
	}
	if dialect == DialectSQLite && !strings.HasPrefix(dsn, "file:") {
		dsn = config.MustExpand(dsn)
	}

	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	return &Plugin{
		name:    repo.Name,
		dialect: dialect,
		table:   table,
		maxRows: repo.MaxRows,
		db:      db,
		log:     log.WithFields(logrus.Fields{"repository": repo.Name, "dialect": dialect}),
	}, nil
}

func (p *Plugin) RepositoryName() string { return p.name }

// TryGetFile is always false: rows do not come from a single log file.
func (p *Plugin) TryGetFile() (string, bool) { return "", false }

func (p *Plugin) CanListen() bool { return false }

// Close releases the database handle.
func (p *Plugin) Close() error {
	return p.db.Close()
}

// GetDays returns the distinct dates present in the table, newest first. The
// database groups the rows; only one value per day crosses the connection.
func (p *Plugin) GetDays(ctx context.Context) ([]time.Time, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s AS day FROM %s WHERE logged_at IS NOT NULL ORDER BY day DESC",
		p.dayExpr(), p.table,
	)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d dayValue
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, d.Time)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return days, nil
}

// dayExpr truncates logged_at to its calendar date. SQLite timestamps are
// text starting with the date; PostgreSQL casts in the session time zone.
func (p *Plugin) dayExpr() string {
	if p.dialect == DialectPostgres {
		return "CAST(logged_at AS date)"
	}
	return "substr(logged_at, 1, 10)"
}

// GetLogs returns the rows logged on day in chronological order. With MaxRows
// set only the latest MaxRows rows of the day are returned.
func (p *Plugin) GetLogs(ctx context.Context, day time.Time) ([]model.LogRow, error) {
	start := model.Day(day)
	end := start.AddDate(0, 0, 1)

	order := "ASC"
	limit := ""
	if p.maxRows > 0 {
		order = "DESC"
		limit = fmt.Sprintf(" LIMIT %d", p.maxRows)
	}
	query := fmt.Sprintf(
		"SELECT logged_at, thread, logger, level, message FROM %s WHERE logged_at >= %s AND logged_at < %s ORDER BY logged_at %s%s",
		p.table, p.placeholder(1), p.placeholder(2), order, limit,
	)

	rows, err := p.db.QueryContext(ctx, query, p.timeArg(start), p.timeArg(end))
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var out []model.LogRow
	for rows.Next() {
		var (
			ts                    timestamp
			thread, logger, level sql.NullString
			message               sql.NullString
		)
		if err := rows.Scan(&ts, &thread, &logger, &level, &message); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		out = append(out, model.LogRow{
			Time:    ts.Time,
			Thread:  thread.String,
			Logger:  logger.String,
			Level:   model.ParseLevel(level.String),
			Message: message.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}

	if order == "DESC" {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	p.log.WithFields(logrus.Fields{"day": start.Format(time.DateOnly), "rows": len(out)}).Debug("logs queried")
	return out, nil
}

func (p *Plugin) placeholder(n int) string {
	if p.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// timeArg passes native timestamps to PostgreSQL and comparable text to
// SQLite, where timestamps are conventionally stored as text.
func (p *Plugin) timeArg(t time.Time) any {
	if p.dialect == DialectSQLite {
		return t.Format(sqliteTime)
	}
	return t
}

// timestamp scans native times as well as text columns.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return errors.New("logged_at is null")
	default:
		return fmt.Errorf("unsupported logged_at type %T", src)
	}
}

// dayValue scans a date column (or YYYY-MM-DD text) as local midnight.
type dayValue struct {
	time.Time
}

func (d *dayValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.Local)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		return errors.New("day is null")
	default:
		return fmt.Errorf("unsupported day type %T", src)
	}
}

func (d *dayValue) parse(s string) error {
	parsed, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.Local)
	if err != nil {
		return fmt.Errorf("unrecognized day %q", s)
	}
	d.Time = parsed
	return nil
}

func (t *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for i, layout := range timestampLayouts {
		var (
			parsed time.Time
			err    error
		)
		if i < 2 {
			parsed, err = time.Parse(layout, s)
		} else {
			parsed, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
