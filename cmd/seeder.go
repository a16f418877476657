package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/permission"
	"github.com/frahmantamala/user-rbac/internal/role"
	"github.com/frahmantamala/user-rbac/internal/user"
	"github.com/frahmantamala/user-rbac/internal/userrole"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed permissions, roles and an admin account for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		ctx := context.Background()
		app, err := newApplication(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to init dependencies: %v", err)
		}
		defer app.Close()

		if clearData {
			if err := app.Gorm.WithContext(ctx).Exec(
				"TRUNCATE user_role_roles, user_roles, role_permissions, roles, permissions, users RESTART IDENTITY CASCADE",
			).Error; err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seed(ctx, app); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

var seedPermissions = []string{
	"view_users",
	"edit_users",
	"view_roles",
	"edit_roles",
	"view_permissions",
	"edit_permissions",
}

var seedRoles = []struct {
	Name        string
	Permissions []string
}{
	{"admin", seedPermissions},
	{"viewer", []string{"view_users", "view_roles", "view_permissions"}},
}

func seed(ctx context.Context, app *application) error {
	for _, name := range seedPermissions {
		if _, err := app.Permissions.GetBy(ctx, permission.Ref{Name: name}); err == nil {
			continue
		} else if !isNotFound(err) {
			return err
		}
		if _, err := app.Permissions.Create(ctx, permission.CreatePermissionDTO{Name: name}); err != nil {
			return fmt.Errorf("permission %s: %w", name, err)
		}
		fmt.Println("Seeded permission:", name)
	}

	for _, r := range seedRoles {
		refs := make([]permission.Ref, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			refs = append(refs, permission.Ref{Name: p})
		}

		existing, err := app.Roles.GetBy(ctx, role.Ref{Name: r.Name})
		switch {
		case err == nil:
			if _, err := app.Roles.ReplacePermissions(ctx, existing.ID, role.ReplacePermissionsDTO{Permissions: &refs}); err != nil {
				return fmt.Errorf("role %s: %w", r.Name, err)
			}
			fmt.Println("Refreshed role:", r.Name)
		case isNotFound(err):
			if _, err := app.Roles.Create(ctx, role.CreateRoleDTO{Name: r.Name, Permissions: refs}); err != nil {
				return fmt.Errorf("role %s: %w", r.Name, err)
			}
			fmt.Println("Seeded role:", r.Name)
		default:
			return err
		}
	}

	admin, err := ensureSuperuser(ctx, app, "admin", "admin@mail.com", "password")
	if err != nil {
		return err
	}

	roles := []role.Ref{{Name: "admin"}}
	if _, err := app.UserRoles.ReplaceRoles(ctx, admin.ID, userrole.ReplaceRolesDTO{Roles: &roles}); err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}
	fmt.Println("Granted admin role to:", admin.Email)
	return nil
}

// ensureSuperuser creates the account unless a user with that username
// already exists, in which case the existing one is returned.
func ensureSuperuser(ctx context.Context, app *application, username, email, password string) (*user.User, error) {
	users, err := app.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			fmt.Println("admin user already exists; will ensure roles")
			if _, err := app.UserRoles.GetForUser(ctx, u.ID); isNotFound(err) {
				if _, err := app.UserRoles.CreateForUser(ctx, u.ID); err != nil {
					return nil, err
				}
			}
			return u, nil
		}
	}

	u, err := app.Users.CreateSuperuser(ctx, username, email, password)
	if err != nil {
		return nil, fmt.Errorf("create admin user: %w", err)
	}
	fmt.Println("Seeded admin user:", u.Email)
	return u, nil
}

func isNotFound(err error) bool {
	var appErr *appErrors.AppError
	return errors.As(err, &appErr) && appErr.StatusCode == http.StatusNotFound
}
