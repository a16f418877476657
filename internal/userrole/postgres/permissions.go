package postgres

import (
	"context"

	"github.com/frahmantamala/user-rbac/internal/userrole"
	"github.com/jmoiron/sqlx"
)

const permissionsForUserQuery = `
SELECT DISTINCT p.id, p.name
FROM user_roles ur
JOIN user_role_roles urr ON urr.user_role_id = ur.id
JOIN role_permissions rp ON rp.role_id = urr.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = ?
ORDER BY p.id
`

type PermissionQuery struct {
	db *sqlx.DB
}

func NewPermissionQuery(db *sqlx.DB) userrole.PermissionQueryAPI {
	return &PermissionQuery{db: db}
}

func (q *PermissionQuery) ListForUser(ctx context.Context, userID int64) ([]userrole.PermissionRow, error) {
	rows := []userrole.PermissionRow{}
	if err := q.db.SelectContext(ctx, &rows, q.db.Rebind(permissionsForUserQuery), userID); err != nil {
		return nil, err
	}
	return rows, nil
}
