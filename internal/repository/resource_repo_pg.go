package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourceSort string

const (
	SortRecent       ResourceSort = "recent"
	SortNameAZ       ResourceSort = "name_az"
	SortCapacityDesc ResourceSort = "capacity_desc"
	SortCapacityAsc  ResourceSort = "capacity_asc"
	SortLocationAZ   ResourceSort = "location_az"
)

var sortClauses = map[ResourceSort]string{
	SortRecent:       "r.created_at DESC, r.id DESC",
	SortNameAZ:       "lower(r.title) ASC, r.id ASC",
	SortCapacityDesc: "r.capacity DESC NULLS LAST, r.id ASC",
	SortCapacityAsc:  "r.capacity ASC NULLS LAST, r.id ASC",
	SortLocationAZ:   "lower(r.location) ASC, r.id ASC",
}

func ValidSort(s string) bool {
	_, ok := sortClauses[ResourceSort(s)]
	return ok
}

type ResourceFilter struct {
	Keyword string
	// AnyTerms matches resources containing at least one of the terms.
	AnyTerms       []string
	Category       string
	Location       string
	MinCapacity    int
	AvailableFrom  *time.Time
	AvailableUntil *time.Time
	Status         domain.ResourceStatus
	OwnerID        int64
	ExactTitle     string
	Sort           ResourceSort
	Limit          int
	Offset         int
}

type CategoryCount struct {
	Category string
	Count    int
}

type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	Update(ctx context.Context, resource *domain.Resource) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Resource, error)
	Search(ctx context.Context, filter ResourceFilter) ([]domain.Resource, int, error)
	CategoryCounts(ctx context.Context, status domain.ResourceStatus) ([]CategoryCount, error)
	Titles(ctx context.Context) ([]string, error)
}

type PGResourceRepository struct {
	db *pgxpool.Pool
}

func NewResourceRepository(db *pgxpool.Pool) ResourceRepository {
	return &PGResourceRepository{db: db}
}

const resourceColumns = `r.id, r.owner_id, r.title, r.slug, r.description, r.category, r.location, r.capacity,
	r.equipment, r.availability_rules, r.is_restricted, r.status, r.availability_schedule,
	r.min_booking_minutes, r.max_booking_minutes, r.booking_increment_minutes, r.buffer_minutes,
	r.advance_booking_days, r.min_lead_time_hours, r.created_at, r.updated_at`

func scanResource(row rowScanner) (*domain.Resource, error) {
	var (
		res      domain.Resource
		schedule []byte
	)
	if err := row.Scan(&res.ID, &res.OwnerID, &res.Title, &res.Slug, &res.Description, &res.Category, &res.Location, &res.Capacity,
		&res.Equipment, &res.AvailabilityRules, &res.IsRestricted, &res.Status, &schedule,
		&res.MinBookingMinutes, &res.MaxBookingMinutes, &res.BookingIncrementMinutes, &res.BufferMinutes,
		&res.AdvanceBookingDays, &res.MinLeadTimeHours, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &res.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule of resource %d: %w", res.ID, err)
		}
	}
	return &res, nil
}

func encodeSchedule(s domain.WeeklySchedule) ([]byte, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal(s)
}

func (r *PGResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	schedule, err := encodeSchedule(res.Schedule)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `INSERT INTO resources (owner_id, title, slug, description, category, location, capacity,
		equipment, availability_rules, is_restricted, status, availability_schedule,
		min_booking_minutes, max_booking_minutes, booking_increment_minutes, buffer_minutes,
		advance_booking_days, min_lead_time_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`,
		res.OwnerID, res.Title, res.Slug, res.Description, res.Category, res.Location, res.Capacity,
		res.Equipment, res.AvailabilityRules, res.IsRestricted, res.Status, schedule,
		res.MinBookingMinutes, res.MaxBookingMinutes, res.BookingIncrementMinutes, res.BufferMinutes,
		res.AdvanceBookingDays, res.MinLeadTimeHours).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	return mapErr(err)
}

func (r *PGResourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	schedule, err := encodeSchedule(res.Schedule)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `UPDATE resources SET title=$2, slug=$3, description=$4, category=$5, location=$6, capacity=$7,
		equipment=$8, availability_rules=$9, is_restricted=$10, status=$11, availability_schedule=$12,
		min_booking_minutes=$13, max_booking_minutes=$14, booking_increment_minutes=$15, buffer_minutes=$16,
		advance_booking_days=$17, min_lead_time_hours=$18, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		res.ID, res.Title, res.Slug, res.Description, res.Category, res.Location, res.Capacity,
		res.Equipment, res.AvailabilityRules, res.IsRestricted, res.Status, schedule,
		res.MinBookingMinutes, res.MaxBookingMinutes, res.BookingIncrementMinutes, res.BufferMinutes,
		res.AdvanceBookingDays, res.MinLeadTimeHours).
		Scan(&res.UpdatedAt)
	return mapErr(err)
}

func (r *PGResourceRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM resources WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGResourceRepository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	return scanResource(r.db.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources r WHERE r.id=$1`, id))
}

func (r *PGResourceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Resource, error) {
	return scanResource(r.db.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources r WHERE r.slug=$1 ORDER BY r.id LIMIT 1`, slug))
}

func (r *PGResourceRepository) Search(ctx context.Context, filter ResourceFilter) ([]domain.Resource, int, error) {
	where, args := buildSearchWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM resources r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args := buildSearchQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	resources := make([]domain.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, 0, err
		}
		resources = append(resources, *res)
	}
	return resources, total, rows.Err()
}

// buildSearchWhere renders the WHERE clause shared by the count and page queries.
func buildSearchWhere(f ResourceFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	textMatch := func(p string) string {
		return fmt.Sprintf("(r.title ILIKE %[1]s OR r.description ILIKE %[1]s OR r.location ILIKE %[1]s OR r.equipment ILIKE %[1]s OR r.category ILIKE %[1]s)", p)
	}

	if f.Status != "" {
		conds = append(conds, "r.status = "+arg(string(f.Status)))
	}
	if f.OwnerID > 0 {
		conds = append(conds, "r.owner_id = "+arg(f.OwnerID))
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		conds = append(conds, textMatch(arg("%"+kw+"%")))
	}
	if len(f.AnyTerms) > 0 {
		var ors []string
		for _, term := range f.AnyTerms {
			if term = strings.TrimSpace(term); term != "" {
				ors = append(ors, textMatch(arg("%"+term+"%")))
			}
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}
	if f.Category != "" {
		conds = append(conds, "r.category = "+arg(f.Category))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		conds = append(conds, "r.location ILIKE "+arg("%"+loc+"%"))
	}
	if f.MinCapacity > 0 {
		conds = append(conds, "r.capacity >= "+arg(f.MinCapacity))
	}
	if f.ExactTitle != "" {
		conds = append(conds, "lower(r.title) = lower("+arg(f.ExactTitle)+")")
	}
	if f.AvailableFrom != nil && f.AvailableUntil != nil {
		from, until := arg(*f.AvailableFrom), arg(*f.AvailableUntil)
		conds = append(conds, fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM bookings b WHERE b.resource_id = r.id
			AND b.status IN ('pending', 'approved') AND b.start_at < %s AND b.end_at > %s)`, until, from))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildSearchQuery(f ResourceFilter) (string, []any) {
	where, args := buildSearchWhere(f)
	order, ok := sortClauses[f.Sort]
	if !ok {
		order = sortClauses[SortRecent]
	}
	query := `SELECT ` + resourceColumns + ` FROM resources r` + where + ` ORDER BY ` + order
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func (r *PGResourceRepository) CategoryCounts(ctx context.Context, status domain.ResourceStatus) ([]CategoryCount, error) {
	rows, err := r.db.Query(ctx, `SELECT category, count(*) FROM resources WHERE ($1 = '' OR status = $1)
		GROUP BY category ORDER BY count(*) DESC, category`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGResourceRepository) Titles(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT title FROM resources ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

var _ ResourceRepository = (*PGResourceRepository)(nil)
