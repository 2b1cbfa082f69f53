// commands.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/docstore/docstorepg"
	"github.com/Abraxas-365/hireline/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/migrations"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the embedded SQL schema",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := migrations.Apply(cmd.Context(), db)
			if err != nil {
				return err
			}
			logx.Infof("✅ %d migration(s) applied", n)
			return nil
		},
	}
}

type createAdminOptions struct {
	email    string
	name     string
	password string
}

func newCreateAdminCommand(opts *rootOptions) *cobra.Command {
	o := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:          "create-admin",
		Short:        "Create the first Admin user",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.password == "" {
				o.password = os.Getenv("ADMIN_PASSWORD")
			}
			db, err := openDatabase(opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			users := usersrv.NewUserService(
				userinfra.NewPostgresUserRepository(db),
				authinfra.NewBcryptPasswordService(opts.cfg.Auth.Password.BcryptCost),
				opts.cfg.Auth.Password.MinLength,
			)
			u, err := createAdmin(cmd.Context(), users, o)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&o.email, "email", "", "admin email")
	cmd.Flags().StringVar(&o.name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&o.password, "password", "", "password (defaults to $ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// AdminCreator is the part of the user service create-admin needs
type AdminCreator interface {
	CreateUser(ctx context.Context, req user.CreateUserRequest) (*user.User, error)
}

func createAdmin(ctx context.Context, users AdminCreator, o *createAdminOptions) (*user.User, error) {
	if o.password == "" {
		return nil, fmt.Errorf("a password is required (--password or ADMIN_PASSWORD)")
	}
	return users.CreateUser(ctx, user.CreateUserRequest{
		Email:    o.email,
		Name:     o.name,
		Password: o.password,
		Role:     kernel.RoleAdmin,
	})
}

func newSeedPanelCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:          "seed-panel",
		Short:        "Load roles, locations and stores from a YAML file",
		Long:         "Load roles, locations and stores from a YAML file. Entries whose name already exists are skipped.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := readSeedFile(file)
			if err != nil {
				return err
			}
			db, err := openDatabase(opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			store := docstorepg.NewPostgresStore(db)
			// nothing subscribes in a one-shot command
			feed := docstore.NewLocalFeed(opts.cfg.Storage.SubscriberBuffer)
			svc := panelsrv.NewPanelService(
				docstore.NewCollection[panel.JobRole](store, feed, panel.RolesCollection),
				docstore.NewCollection[panel.Location](store, feed, panel.LocationsCollection),
				docstore.NewCollection[panel.Store](store, feed, panel.StoresCollection),
			)

			res, err := svc.Seed(cmd.Context(), *seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "roles: %d, locations: %d, stores: %d, skipped: %d\n",
				res.Roles, res.Locations, res.Stores, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "panel.yaml", "seed file")
	return cmd
}

func readSeedFile(path string) (*panel.SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed panel.SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Storage.DocStore != "postgres" {
		return nil, fmt.Errorf("this command needs DOCSTORE_MODE=postgres")
	}
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
