package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/core/events"
	"github.com/frahmantamala/rbac-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-service/internal/permission/postgres"
	"github.com/frahmantamala/rbac-service/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-service/internal/role/postgres"
	"github.com/frahmantamala/rbac-service/internal/user"
	userPostgres "github.com/frahmantamala/rbac-service/internal/user/postgres"
	"github.com/frahmantamala/rbac-service/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the default roles, permissions and admin user",
	Long:  `Seed permissions, the ADMIN/User/Guest roles and the root admin account. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		return newSeeder(db, cfg.Security.BCryptCost, logger.LoggerWrapper()).run(cmd.Context(), cfg.Seed, clearData)
	},
}

// roleGrants lists the seeded roles in creation order. ADMIN needs no links.
var roleGrants = []struct {
	Name        string
	Description string
	Permissions []string
}{
	{Name: "ADMIN", Description: "Full access"},
	{Name: "User", Description: "Regular user", Permissions: permission.DefaultNames},
	{Name: "Guest", Description: "Read only", Permissions: []string{permission.Read, permission.List}},
}

type seeder struct {
	permissions *permission.Service
	roles       *role.Service
	users       *user.Service
	logger      *slog.Logger
}

func newSeeder(db *gorm.DB, bcryptCost int, slogger *slog.Logger) *seeder {
	// no resolver runs in this process, so nobody listens on the bus
	bus := events.NewEventBus(slogger)
	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), slogger)
	return &seeder{
		permissions: permissionService,
		roles:       role.NewService(rolePostgres.NewRoleRepository(db), permissionService, bus, slogger),
		users:       user.NewService(userPostgres.NewUserRepository(db), bus, bcryptCost, slogger),
		logger:      slogger,
	}
}

func (s *seeder) run(ctx context.Context, cfg internal.SeedConfig, clear bool) error {
	seeded, err := s.permissions.EnsureSeeded(ctx, permission.DefaultNames)
	if err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	ids := make(map[string]int64, len(seeded))
	for _, p := range seeded {
		ids[p.Name] = p.ID
	}

	roleIDs := make(map[string]int64, len(roleGrants))
	for _, grant := range roleGrants {
		r, err := s.ensureRole(ctx, grant.Name, grant.Description)
		if err != nil {
			return err
		}
		roleIDs[grant.Name] = r.ID

		if clear {
			if err := s.roles.ClearPermissions(ctx, r.ID); err != nil {
				return fmt.Errorf("clear permissions of %s: %w", grant.Name, err)
			}
		}
		if len(grant.Permissions) == 0 {
			continue
		}

		want := make([]int64, 0, len(grant.Permissions))
		for _, name := range grant.Permissions {
			want = append(want, ids[name])
		}
		if _, err := s.roles.AssignPermissions(ctx, r.ID, want); err != nil {
			return fmt.Errorf("grant permissions to %s: %w", grant.Name, err)
		}
		s.logger.Info("seeded role", "role", grant.Name, "permissions", grant.Permissions)
	}

	_, err = s.users.Create(ctx, user.CreateUserDTO{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		RoleID:   roleIDs["ADMIN"],
	})
	switch {
	case errors.Is(err, internal.ErrInfoUserInUse):
		s.logger.Info("admin user already exists", "email", cfg.AdminEmail)
	case err != nil:
		return fmt.Errorf("seed admin user: %w", err)
	default:
		s.logger.Info("seeded admin user", "email", cfg.AdminEmail)
	}
	return nil
}

func (s *seeder) ensureRole(ctx context.Context, name, description string) (*role.Role, error) {
	existing, err := s.roles.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, internal.ErrRoleNotExist) {
		return nil, fmt.Errorf("look up role %s: %w", name, err)
	}

	created, err := s.roles.Create(ctx, role.CreateRoleDTO{Name: name, Description: description})
	if err != nil {
		return nil, fmt.Errorf("create role %s: %w", name, err)
	}
	return created, nil
}
