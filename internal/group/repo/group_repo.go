package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
)

// Repo is the repository implementation for groups backed by PostgreSQL.
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a new Repo with an existing connection.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

type groupRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Permissions pq.StringArray `db:"permissions"`
}

func (g groupRow) entity() entity.Group {
	perms := []string(g.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return entity.Group{ID: g.ID, Name: g.Name, Permissions: perms}
}

func (r *Repo) List(ctx context.Context) ([]entity.Group, error) {
	var rows []groupRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, permissions FROM groups ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	out := make([]entity.Group, 0, len(rows))
	for _, g := range rows {
		out = append(out, g.entity())
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*entity.Group, error) {
	var row groupRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, permissions FROM groups WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	g := row.entity()
	return &g, nil
}

func (r *Repo) Create(ctx context.Context, g *entity.Group) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO groups (id, name, permissions) VALUES ($1, $2, $3)`,
		g.ID, g.Name, pq.Array(g.Permissions))
	return mapUnique(err, "insert group")
}

func (r *Repo) Update(ctx context.Context, g *entity.Group) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET name = $2, permissions = $3 WHERE id = $1`,
		g.ID, g.Name, pq.Array(g.Permissions))
	if err != nil {
		return mapUnique(err, "update group")
	}
	return common.ExpectRow(res)
}

// Delete removes the group; memberships cascade.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return common.ExpectRow(res)
}

func (r *Repo) Members(ctx context.Context, groupID int64) ([]int64, error) {
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM user_groups WHERE group_id = $1 ORDER BY user_id`, groupID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return ids, nil
}

// AddMember is idempotent.
func (r *Repo) AddMember(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, groupID)
	if err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return common.ErrNotFound
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *Repo) RemoveMember(ctx context.Context, groupID, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_groups WHERE user_id = $1 AND group_id = $2`, userID, groupID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return common.ExpectRow(res)
}

// HasPermission reports whether any of the user's groups grants perm.
func (r *Repo) HasPermission(ctx context.Context, userID int64, perm string) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM user_groups ug JOIN groups g ON g.id = ug.group_id
		WHERE ug.user_id = $1 AND $2 = ANY (g.permissions))`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, userID, perm); err != nil {
		return false, fmt.Errorf("has permission: %w", err)
	}
	return ok, nil
}

func mapUnique(err error, op string) error {
	if err == nil {
		return nil
	}
	if database.HasCode(err, database.UniqueViolation) {
		return common.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
