package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"learnhub/internal/config"
	"learnhub/internal/lib/slogcustom"
	"learnhub/internal/maintenance"
	"learnhub/internal/storage"
	"learnhub/internal/storage/backend"
)

const commandTimeout = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var store storage.Store

	root := &cobra.Command{
		Use:           "lmsctl",
		Short:         "Maintenance commands for the learnhub store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateStore(); err != nil {
				return err
			}
			slog.SetDefault(slogcustom.New(os.Stderr, cfg.LogLevel))

			store, err = backend.Open(cmd.Context(), cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if store == nil {
				return nil
			}
			return store.Close(cmd.Context())
		},
	}

	get := func() storage.Store { return store }
	root.AddCommand(
		newSeedAdminCmd(get),
		newUpdateEmailCmd(get),
		newRemoveAttributeCmd(get),
		newHashPasswordsCmd(get),
		newImportMaterialsCmd(get),
	)
	return root
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), commandTimeout)
}

func newSeedAdminCmd(store func() storage.Store) *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account unless the email is already registered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			u, created, err := maintenance.SeedAdmin(ctx, store(), email, name, password)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists (role %s)\n", u.Email, u.Role)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %s\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUpdateEmailCmd(store func() storage.Store) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "update-email",
		Short: "Change the email of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			if err := maintenance.UpdateEmail(ctx, store(), from, to); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "email changed: %s -> %s\n", from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "current email")
	cmd.Flags().StringVar(&to, "to", "", "new email")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRemoveAttributeCmd(store func() storage.Store) *cobra.Command {
	var collection, attribute string
	cmd := &cobra.Command{
		Use:   "remove-attribute",
		Short: "Strip an attribute from every record of a collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := storage.ParseCollection(collection)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()

			n, err := store().RemoveAttribute(ctx, c, attribute)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %q from %d %s records\n", attribute, n, c)
			return nil
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "users, registrations, progress or materials")
	cmd.Flags().StringVar(&attribute, "attribute", "", "attribute name")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("attribute")
	return cmd
}

func newHashPasswordsCmd(store func() storage.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passwords",
		Short: "Replace plaintext passwords with bcrypt hashes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			n, err := maintenance.HashPasswords(ctx, store())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hashed %d passwords\n", n)
			return nil
		},
	}
}

func newImportMaterialsCmd(store func() storage.Store) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-materials",
		Short: "Load course materials from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, cancel := withTimeout(cmd)
			defer cancel()

			n, err := maintenance.ImportMaterials(ctx, store(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d materials\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON array of materials")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
