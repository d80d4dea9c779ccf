package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/auth"
	authPostgres "github.com/frahmantamala/employee-management/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with roles and a bootstrap admin",
	Long:  `Insert the ADMIN, MANAGER and EMPLOYEE roles and an admin user holding every role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			return err
		}

		lg := logger.LoggerWrapper()
		ctx := context.Background()

		for _, name := range security.KnownRoles {
			role := userDatamodel.Role{Name: name}
			if err := gdb.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role %s: %w", name, err)
			}
			lg.Info("seeded role", "role", name)
		}

		repo := authPostgres.NewUserRepository(gdb)
		exists, err := repo.ExistsByEmail(ctx, seedAdminEmail)
		if err != nil {
			return fmt.Errorf("failed to look up admin user: %w", err)
		}
		if exists {
			lg.Info("admin user already exists", "email", seedAdminEmail)
			return nil
		}

		hash, err := auth.HashPassword(seedAdminPassword, cfg.Security.BCryptCost)
		if err != nil {
			return err
		}

		admin := &userDatamodel.User{
			Email:        seedAdminEmail,
			PasswordHash: hash,
			FirstName:    "System",
			LastName:     "Admin",
			Roles: []userDatamodel.Role{
				{Name: internal.RoleAdmin},
				{Name: internal.RoleManager},
				{Name: internal.RoleEmployee},
			},
		}
		if err := repo.Create(ctx, admin); err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				return nil
			}
			return fmt.Errorf("failed to insert admin user: %w", err)
		}

		lg.Info("seeded admin user", "email", seedAdminEmail)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@company.com", "bootstrap admin email")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "admin12345", "bootstrap admin password")
}
