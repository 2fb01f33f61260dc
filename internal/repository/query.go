package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOptions are the paging, search and ordering parameters shared by every
// list endpoint
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Ordering string
}

// Normalize clamps paging values into range
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Page is one page of a tenant-scoped list
type Page[T any] struct {
	Items    []T
	Count    int64
	Page     int
	PageSize int
}

// GroupCount is a row of a GROUP BY count
type GroupCount struct {
	Key   string
	Count int64
}

// StatusCounts summarises a tenant's rows by active flag and age
type StatusCounts struct {
	Total  int64
	Active int64
	Recent int64
}

// paginate counts q and loads the requested page into a slice of T
func paginate[T any](q *gorm.DB, opts ListOptions) (Page[T], error) {
	opts = opts.Normalize()
	page := Page[T]{Page: opts.Page, PageSize: opts.PageSize, Items: []T{}}

	if err := q.Session(&gorm.Session{}).Count(&page.Count).Error; err != nil {
		return page, err
	}
	if page.Count == 0 {
		return page, nil
	}
	err := q.Offset((opts.Page - 1) * opts.PageSize).Limit(opts.PageSize).Find(&page.Items).Error
	return page, err
}

// applySearch adds a case-insensitive OR match of term over columns
func applySearch(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	like := "%" + escapeLike(term) + "%"
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = col + " ILIKE ?"
		args[i] = like
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// applyOrdering orders q by a comma separated list of allowed field names,
// each optionally prefixed with '-' for descending. Unknown names are
// ignored; fallback applies when nothing usable was given.
func applyOrdering(q *gorm.DB, ordering string, allowed map[string]string, fallback string) *gorm.DB {
	applied := false
	for _, field := range strings.Split(ordering, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		col, ok := allowed[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		if desc {
			col += " DESC"
		}
		q = q.Order(col)
		applied = true
	}
	if !applied {
		for _, col := range strings.Split(fallback, ",") {
			q = q.Order(strings.TrimSpace(col))
		}
	}
	return q
}

// tenantRepo implements the operations every agency-scoped entity shares
type tenantRepo[T any] struct {
	db *gorm.DB
}

func (r tenantRepo[T]) scoped(ctx context.Context, agencyID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Where("agency_id = ?", agencyID)
}

// Get loads one row of the agency
func (r tenantRepo[T]) Get(ctx context.Context, agencyID, id uuid.UUID) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).Where("agency_id = ? AND id = ?", agencyID, id).First(&row).Error
	if err != nil {
		return nil, translate(err, "failed to get record")
	}
	return &row, nil
}

// Exists reports whether a row with id exists in the agency
func (r tenantRepo[T]) Exists(ctx context.Context, agencyID, id uuid.UUID) (bool, error) {
	var n int64
	err := r.scoped(ctx, agencyID).Where("id = ?", id).Limit(1).Count(&n).Error
	return n > 0, translate(err, "failed to check record")
}

// Create inserts row together with its has-one and has-many associations
func (r tenantRepo[T]) Create(ctx context.Context, row *T) error {
	return translate(r.db.WithContext(ctx).Create(row).Error, "failed to create record")
}

// Save writes every column of row without touching associations
func (r tenantRepo[T]) Save(ctx context.Context, row *T) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(row).Error, "failed to save record")
}

// Delete removes one row of the agency
func (r tenantRepo[T]) Delete(ctx context.Context, agencyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("agency_id = ? AND id = ?", agencyID, id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error, "failed to delete record")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive updates is_active on the given ids of the agency and returns
// how many rows changed
func (r tenantRepo[T]) SetActive(ctx context.Context, agencyID uuid.UUID, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.scoped(ctx, agencyID).Where("id IN ?", ids).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now().UTC()})
	return res.RowsAffected, translate(res.Error, "failed to update status")
}

// CountStatus counts all, active and recently created rows of the agency
func (r tenantRepo[T]) CountStatus(ctx context.Context, agencyID uuid.UUID, since time.Time) (StatusCounts, error) {
	var counts StatusCounts
	err := r.scoped(ctx, agencyID).Select(
		"COUNT(*) AS total, "+
			"COUNT(*) FILTER (WHERE is_active) AS active, "+
			"COUNT(*) FILTER (WHERE created_at >= ?) AS recent", since,
	).Scan(&counts).Error
	return counts, translate(err, "failed to count records")
}

// CountBy groups the agency's rows by a column. column must be a trusted
// identifier, never user input.
func (r tenantRepo[T]) CountBy(ctx context.Context, agencyID uuid.UUID, column string) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.scoped(ctx, agencyID).
		Select("COALESCE(CAST(" + column + " AS TEXT), '') AS key, COUNT(*) AS count").
		Group(column).Order("count DESC").
		Scan(&rows).Error
	return rows, translate(err, "failed to group records")
}

// CountWhere counts the agency's rows matching a condition
func (r tenantRepo[T]) CountWhere(ctx context.Context, agencyID uuid.UUID, cond string, args ...interface{}) (int64, error) {
	var n int64
	err := r.scoped(ctx, agencyID).Where(cond, args...).Count(&n).Error
	return n, translate(err, "failed to count records")
}

// All loads every row of the agency, optionally only active ones, in order
func (r tenantRepo[T]) All(ctx context.Context, agencyID uuid.UUID, activeOnly bool, order string) ([]T, error) {
	q := r.scoped(ctx, agencyID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	rows := []T{}
	err := applyOrdering(q, "", nil, order).Find(&rows).Error
	return rows, translate(err, "failed to list records")
}
