package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/rbac-service/internal/authorization"
)

const userGrantsQuery = `
SELECT u.id AS user_id, r.name AS role_name, p.name AS permission_name
FROM users u
JOIN roles r ON r.id = u.role_id
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id
WHERE u.id = $1 AND u.deleted_at IS NULL AND u.active = true
ORDER BY p.name`

const roleNamesQuery = `SELECT name FROM roles`

type grantRow struct {
	UserID         int64          `db:"user_id"`
	RoleName       string         `db:"role_name"`
	PermissionName sql.NullString `db:"permission_name"`
}

// SnapshotStore reads authorization snapshots with plain SQL.
type SnapshotStore struct {
	db *sqlx.DB
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// LoadSnapshot runs the user grant query and the role name query concurrently.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, userID int64) (*authorization.Snapshot, error) {
	var (
		grants    []grantRow
		roleNames []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.SelectContext(gctx, &grants, userGrantsQuery, userID); err != nil {
			return fmt.Errorf("load grants of user %d: %w", userID, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.SelectContext(gctx, &roleNames, roleNamesQuery); err != nil {
			return fmt.Errorf("load role names: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &authorization.Snapshot{
		UserID:      userID,
		Permissions: []string{},
		RoleNames:   roleNames,
	}
	if len(grants) == 0 {
		return snapshot, nil
	}

	snapshot.Found = true
	snapshot.RoleName = grants[0].RoleName
	for _, row := range grants {
		if row.PermissionName.Valid {
			snapshot.Permissions = append(snapshot.Permissions, row.PermissionName.String)
		}
	}
	return snapshot, nil
}
