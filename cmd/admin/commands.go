package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/core/config"
	"github.com/Divyaanshvats/intern-management-system/internal/core/database"
	"github.com/Divyaanshvats/intern-management-system/internal/core/logger"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	"github.com/Divyaanshvats/intern-management-system/internal/repo"
	"github.com/Divyaanshvats/intern-management-system/internal/service"
)

// operator is the identity account changes are attributed to.
var operator = auth.Identity{Email: "admin-cli", Role: domain.RoleHR}

type rootFlags struct {
	configPath string
	dbURL      string
	logLevel   string
}

type session struct {
	users *service.UserService
}

// open loads config, connects and migrates. The returned func closes the
// database.
func (f *rootFlags) open(ctx context.Context) (*session, func(), error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.dbURL != "" {
		cfg.DB.URL = f.dbURL
	}
	l, syncLog := logger.Build(logger.Options{
		Level:  f.logLevel,
		Output: zapcore.AddSync(os.Stderr),
	})
	db, err := database.NewGorm(database.OptsFromConfig(cfg.DB, l))
	if err != nil {
		syncLog()
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db.WithContext(ctx)); err != nil {
		_ = database.Close(db)
		syncLog()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	gate := auth.NewGate(&auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer})
	s := &session{
		users: service.NewUserService(repo.NewUserRepo(db), gate, cfg.Auth.InviteCode, l),
	}
	return s, func() {
		_ = database.Close(db)
		syncLog()
	}, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Operator tools for the intern management system",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")
	root.PersistentFlags().StringVar(&f.dbURL, "db", "", "database url, overrides db.url")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newMigrateCmd(f),
		newCopyCmd(f),
		newUsersCmd(f),
	)
	return root
}

func newMigrateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, done, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newCopyCmd(f *rootFlags) *cobra.Command {
	var from, to string
	var batch int
	cmd := &cobra.Command{
		Use:   "copy-db",
		Short: "Copy users and evaluations between databases, keeping ids",
		Long: "copy-db reads every user and evaluation from --from and inserts them into --to.\n" +
			"Rows whose id already exists in the target are skipped, so it can be rerun.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, syncLog := logger.Build(logger.Options{Level: f.logLevel, Output: zapcore.AddSync(os.Stderr)})
			defer syncLog()

			src, err := database.NewGorm(database.Opts{URL: from, LogLevel: "silent", Logger: l})
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer func() { _ = database.Close(src) }()
			dst, err := database.NewGorm(database.Opts{URL: to, LogLevel: "silent", Logger: l})
			if err != nil {
				return fmt.Errorf("open target: %w", err)
			}
			defer func() { _ = database.Close(dst) }()

			stats, err := database.Copy(cmd.Context(), src, dst, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d users, %d evaluations\n", stats.Users, stats.Evaluations)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "source database url")
	cmd.Flags().StringVar(&to, "to", "", "target database url")
	cmd.Flags().IntVar(&batch, "batch", 500, "rows per batch")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newUsersCmd(f *rootFlags) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Inspect and maintain accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, done, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			us, err := s.users.List(cmd.Context(), operator)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE")
			for _, u := range us {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Name, u.Role, u.IsActive)
			}
			return tw.Flush()
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle EMAIL",
		Short: "Activate or deactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			u, err := s.users.ToggleActive(cmd.Context(), operator, args[0])
			if err != nil {
				return err
			}
			state := "inactive"
			if u.IsActive {
				state = "active"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, state)
			return nil
		},
	}

	var in service.RegisterInput
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account without an invite code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, done, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			in.Role = domain.Role(role)
			u, err := s.users.Provision(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%d\n", u.Email, u.Role, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "display name")
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Password, "password", "", "initial password")
	create.Flags().StringVar(&role, "role", string(domain.RoleHR), "manager, intern or hr")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	users.AddCommand(list, toggle, create)
	return users
}
