package leads

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the slice of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool pgxQuerier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool pgxQuerier) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, user_id, name, phone, email, service, status, source, notes, follow_up_on, created_at, updated_at`

// escapeLike neutralizes LIKE metacharacters so a search term matches as a
// literal substring, the same way the in-memory repository matches.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.Phone, &l.Email, &l.Service,
		&l.Status, &l.Source, &l.Notes, &l.FollowUpOn, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns the user's leads, filtered and ordered per filter.
func (r *PostgresRepository) List(ctx context.Context, userID string, filter ListFilter) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = $1`
	args := []any{userID}
	argNum := 2

	if term := strings.TrimSpace(filter.Search); term != "" {
		query += fmt.Sprintf(
			" AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d OR service ILIKE $%d OR notes ILIKE $%d)",
			argNum, argNum, argNum, argNum, argNum)
		args = append(args, "%"+escapeLike(term)+"%")
		argNum++
	}
	if filter.Status != "" && filter.Status != StatusAll {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}

	switch filter.Sort {
	case SortNameAsc:
		query += " ORDER BY lower(name) ASC"
	case SortNameDesc:
		query += " ORDER BY lower(name) DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Phone, &l.Email, &l.Service,
			&l.Status, &l.Source, &l.Notes, &l.FollowUpOn, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Get fetches a lead scoped to its owner.
func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND user_id = $2`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, userID))
	if err == pgx.ErrNoRows {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// Create inserts a new row owned by req.UserID.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, user_id, name, phone, email, service, status, source, notes, follow_up_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	lead := &Lead{
		ID:         id.String(),
		UserID:     req.UserID,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Service:    req.Service,
		Status:     req.Status,
		Source:     req.Source,
		Notes:      req.Notes,
		FollowUpOn: req.FollowUpOn,
	}
	if err := r.pool.QueryRow(ctx, query,
		id, req.UserID, req.Name, req.Phone, req.Email, req.Service,
		req.Status, req.Source, req.Notes, req.FollowUpOn,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// Update applies the touched fields and refreshes updated_at. Missing or
// foreign-owned ids return ErrLeadNotFound.
func (r *PostgresRepository) Update(ctx context.Context, userID, id string, req *UpdateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// An empty update leaves the row (and updated_at) untouched.
	if req.empty() {
		return r.Get(ctx, userID, id)
	}

	set := []string{"updated_at = now()"}
	args := []any{}
	argNum := 1

	addSet := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, value)
		argNum++
	}
	if req.Name != nil {
		addSet("name", *req.Name)
	}
	if req.Phone != nil {
		addSet("phone", *req.Phone)
	}
	if req.Email != nil {
		addSet("email", *req.Email)
	}
	if req.Service != nil {
		addSet("service", *req.Service)
	}
	if req.Status != nil {
		addSet("status", *req.Status)
	}
	if req.Source != nil {
		addSet("source", *req.Source)
	}
	if req.Notes != nil {
		addSet("notes", *req.Notes)
	}
	if req.FollowUpOn.Set {
		addSet("follow_up_on", req.FollowUpOn.Time)
	}

	query := fmt.Sprintf(
		"UPDATE leads SET %s WHERE id = $%d AND user_id = $%d RETURNING "+leadColumns,
		strings.Join(set, ", "), argNum, argNum+1)
	args = append(args, id, userID)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return lead, nil
}

// Delete removes the lead permanently. Deleting an id that does not exist for
// this user returns ErrLeadNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("leads: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// Recent returns the newest leads for the dashboard.
func (r *PostgresRepository) Recent(ctx context.Context, userID string, limit int) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("leads: recent failed: %w", err)
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Phone, &l.Email, &l.Service,
			&l.Status, &l.Source, &l.Notes, &l.FollowUpOn, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
