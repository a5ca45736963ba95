package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/logger"
)

// Scope narrows the rows a KeysetPuller reads, e.g. with a Where clause.
type Scope = func(*gorm.DB) *gorm.DB

// KeysetPuller reads the rows of model T in key order, one page per query.
// Each page starts strictly after the key of the previous page's last row,
// so rows inserted behind the cursor are never revisited and no offset is
// scanned. A page shorter than the page size ends the scan.
type KeysetPuller[T any] struct {
	db       *gorm.DB
	table    string
	column   string
	pageSize int
	key      func(T) any
	scopes   []Scope
	ownsDB   bool

	buf   []T
	last  any
	done  bool
	pages int
}

// NewKeysetPuller returns a puller over db. key extracts cfg.KeyColumn's
// value from a row. The caller keeps ownership of db.
func NewKeysetPuller[T any](db *gorm.DB, cfg Config, key func(T) any, scopes ...Scope) *KeysetPuller[T] {
	return &KeysetPuller[T]{
		db:       db,
		table:    cfg.Table,
		column:   cfg.KeyColumn,
		pageSize: cfg.PageSize,
		key:      key,
		scopes:   scopes,
	}
}

// Next returns the next row, querying a new page when the buffer is empty.
func (p *KeysetPuller[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if len(p.buf) == 0 {
		if p.done {
			return zero, false, nil
		}
		if err := p.fetchPage(ctx); err != nil {
			return zero, false, err
		}
		if len(p.buf) == 0 {
			return zero, false, nil
		}
	}
	row := p.buf[0]
	p.buf = p.buf[1:]
	return row, true, nil
}

func (p *KeysetPuller[T]) fetchPage(ctx context.Context) error {
	col := clause.Column{Name: p.column}
	q := p.db.WithContext(ctx)
	if p.table != "" {
		q = q.Table(p.table)
	}
	q = q.Scopes(p.scopes...)
	if p.last != nil {
		q = q.Where(clause.Gt{Column: col, Value: p.last})
	}

	var page []T
	err := q.Order(clause.OrderByColumn{Column: col}).Limit(p.pageSize).Find(&page).Error
	if err != nil {
		return fmt.Errorf("database: page %d after %s=%v: %w", p.pages+1, p.column, p.last, err)
	}
	p.pages++
	if len(page) < p.pageSize {
		p.done = true
	}
	if len(page) > 0 {
		p.last = p.key(page[len(page)-1])
	}
	p.buf = page
	return nil
}

// Pages reports how many queries have run.
func (p *KeysetPuller[T]) Pages() int { return p.pages }

// Close closes the connection pool only when the puller was built by
// NewTablePuller.
func (p *KeysetPuller[T]) Close() error {
	if !p.ownsDB {
		return nil
	}
	return Close(p.db)
}

// Row is one row of a column-map scan.
type Row = map[string]any

// NewTablePuller scans cfg.Table into column maps keyed by cfg.KeyColumn.
// The puller takes ownership of db.
func NewTablePuller(db *gorm.DB, cfg Config) *KeysetPuller[Row] {
	p := NewKeysetPuller(db, cfg, func(r Row) any { return r[cfg.KeyColumn] })
	p.ownsDB = true
	return p
}

// Open scans model T through a KeysetPuller as a FetchIterator.
func Open[T any](ctx context.Context, db *gorm.DB, cfg Config, log *logger.Logger, key func(T) any, scopes []Scope, opts ...async.FetchOption) *async.FetchIterator[T] {
	opts = append([]async.FetchOption{async.WithFetchLogger(log.WithComponent("database"))}, opts...)
	return async.FromPuller[T](ctx, NewKeysetPuller(db, cfg, key, scopes...), opts...)
}
