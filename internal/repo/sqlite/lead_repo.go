package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/pkg/database"
)

type LeadsRepo interface {
	Create(ctx context.Context, in *domain.NewLead) (*domain.Lead, error)
	List(ctx context.Context) ([]domain.Lead, error)
	GetByID(ctx context.Context, id int64) (*domain.Lead, error)
	ToggleContacted(ctx context.Context, id int64) error
}

type LeadsRepoImpl struct{ db *database.DB }

func NewLeadsRepo(db *database.DB) *LeadsRepoImpl { return &LeadsRepoImpl{db: db} }

const leadCols = `id, city, psc, type, area, layout, balcony, condition,
first_name, last_name, email, phone, contacted, created_at`

func (r *LeadsRepoImpl) Create(ctx context.Context, in *domain.NewLead) (*domain.Lead, error) {
	const q = `INSERT INTO leads (
    city, psc, type, area, layout, balcony, condition,
    first_name, last_name, email, phone
  ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Exec(ctx, q,
		in.City, in.PostalCode, in.PropertyType, in.Area,
		in.Layout, in.Balcony, in.Condition,
		in.FirstName, in.LastName, in.Email, in.Phone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}
	return r.GetByID(ctx, res.LastInsertID)
}

// List returns every lead, newest first. Rows inserted within the same
// second keep their insertion order through the id tiebreak.
func (r *LeadsRepoImpl) List(ctx context.Context) ([]domain.Lead, error) {
	const q = `SELECT ` + leadCols + ` FROM leads ORDER BY created_at DESC, id DESC`

	leads := []domain.Lead{}
	err := r.db.FetchMany(ctx, q, nil, func(row database.Row) error {
		var l domain.Lead
		if err := scanLead(row, &l); err != nil {
			return err
		}
		leads = append(leads, l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (r *LeadsRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	const q = `SELECT ` + leadCols + ` FROM leads WHERE id = ?`

	var (
		l   domain.Lead
		row leadRow
	)
	found, err := r.db.FetchOne(ctx, q, []any{id}, row.dest(&l)...)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	if !found {
		return nil, domain.ErrLeadNotFound
	}
	row.apply(&l)
	return &l, nil
}

// ToggleContacted flips the contacted flag. The read and the write are
// separate statements; two concurrent toggles of one lead may lose one.
func (r *LeadsRepoImpl) ToggleContacted(ctx context.Context, id int64) error {
	var contacted int64
	found, err := r.db.FetchOne(ctx, `SELECT contacted FROM leads WHERE id = ?`, []any{id}, &contacted)
	if err != nil {
		return fmt.Errorf("read contacted: %w", err)
	}
	if !found {
		return domain.ErrLeadNotFound
	}

	next := 1
	if contacted != 0 {
		next = 0
	}
	if _, err := r.db.Exec(ctx, `UPDATE leads SET contacted = ? WHERE id = ?`, next, id); err != nil {
		return fmt.Errorf("write contacted: %w", err)
	}
	return nil
}

// leadRow holds the columns that need conversion after scanning.
type leadRow struct {
	layout, balcony, condition sql.NullString
	contacted                  sql.NullInt64
	createdAt                  timestamp
}

func (row *leadRow) dest(l *domain.Lead) []any {
	return []any{
		&l.ID, &l.City, &l.PostalCode, &l.PropertyType, &l.Area,
		&row.layout, &row.balcony, &row.condition,
		&l.FirstName, &l.LastName, &l.Email, &l.Phone,
		&row.contacted, &row.createdAt,
	}
}

func (row *leadRow) apply(l *domain.Lead) {
	l.Layout = row.layout.String
	l.Balcony = row.balcony.String
	l.Condition = row.condition.String
	l.Contacted = row.contacted.Int64 != 0
	l.CreatedAt = row.createdAt.Time
}

func scanLead(src database.Row, l *domain.Lead) error {
	var row leadRow
	if err := src.Scan(row.dest(l)...); err != nil {
		return err
	}
	row.apply(l)
	return nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
}

// timestamp accepts both the CURRENT_TIMESTAMP text form and driver-parsed
// time values.
type timestamp struct{ time.Time }

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

var _ LeadsRepo = (*LeadsRepoImpl)(nil)
