package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
	"github.com/wuwenbin0122/tasklist/internal/models"
)

func (p *Postgres) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := p.Pool.Query(ctx, `SELECT id, name, permissions FROM auth_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list groups: %w", err)
	}
	groups, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Group])
	if err != nil {
		return nil, fmt.Errorf("postgres: list groups: %w", err)
	}
	return groups, nil
}

func (p *Postgres) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	var group models.Group
	err := p.Pool.QueryRow(ctx, `SELECT id, name, permissions FROM auth_groups WHERE id = $1`, id).
		Scan(&group.ID, &group.Name, &group.Permissions)
	if err != nil {
		return nil, translate("get group", err, i18n.ErrGroupNotFound)
	}
	return &group, nil
}

func (p *Postgres) CreateGroup(ctx context.Context, group *models.Group) error {
	err := p.Pool.QueryRow(ctx, `INSERT INTO auth_groups (name, permissions) VALUES ($1, $2) RETURNING id`,
		group.Name, group.Permissions).Scan(&group.ID)
	return translate("insert group", err, i18n.ErrGroupNotFound)
}

func (p *Postgres) UpdateGroup(ctx context.Context, group *models.Group) error {
	tag, err := p.Pool.Exec(ctx, `UPDATE auth_groups SET name = $2, permissions = $3 WHERE id = $1`,
		group.ID, group.Name, group.Permissions)
	if err != nil {
		return translate("update group", err, i18n.ErrGroupNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(i18n.ErrGroupNotFound)
	}
	return nil
}

func (p *Postgres) DeleteGroup(ctx context.Context, id int64) error {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM auth_groups WHERE id = $1`, id)
	if err != nil {
		return translate("delete group", err, i18n.ErrGroupNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(i18n.ErrGroupNotFound)
	}
	return nil
}
