package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/todo/internal/credential"
	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/service"
	"github.com/nhle/todo/internal/store"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	configPath string
	cfg        *model.AppConfig
	log        *log.Logger

	// openCredentials is swapped out in tests.
	openCredentials func() (*credential.Store, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{openCredentials: credential.Open})
}

func newRootCmdFor(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Track tasks, appointments and addresses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", model.DefaultConfigPath(), "path to the config file")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("dsn", "", "database connection string")

	cmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newTasksCmd(a),
		newAddressesCmd(a),
		newAppointmentsCmd(a),
		newCredentialCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// load reads the config file, applies environment and flag overrides and
// builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	v := model.NewViper(a.configPath)

	bindings := map[string]string{
		"log.level":    "log-level",
		"database.dsn": "dsn",
		"server.addr":  "addr",
	}
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}

	cfg, err := model.LoadConfigFrom(v)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger
	return nil
}

func newLogger(cfg model.LogConfig, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format %q: %w", cfg.Format, model.ErrValidation)
	}
	return logger, nil
}

// databaseDSN resolves the configured DSN. A sqlite path may start with
// ~/ and its directory is created; a postgres DSN gets its password from
// the keyring when database.password_key is set.
func (a *app) databaseDSN() (string, error) {
	db := a.cfg.Database

	switch db.Driver {
	case model.DriverSQLite:
		dsn := db.DSN
		if strings.HasPrefix(dsn, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolving home directory: %w", err)
			}
			dsn = filepath.Join(home, dsn[2:])
		}
		if !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
			path, _, _ := strings.Cut(dsn, "?")
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", fmt.Errorf("creating database directory: %w", err)
			}
		}
		return dsn, nil

	case model.DriverPostgres:
		if db.PasswordKey == "" {
			return db.DSN, nil
		}
		creds, err := a.openCredentials()
		if err != nil {
			return "", err
		}
		password, err := creds.Get(db.PasswordKey)
		if err != nil {
			return "", err
		}
		return store.PostgresDSNWithPassword(db.DSN, password)
	}

	return "", fmt.Errorf("unsupported database driver %q: %w", db.Driver, model.ErrValidation)
}

// openStore opens the configured database and runs pending migrations.
func (a *app) openStore() (*store.Store, error) {
	dsn, err := a.databaseDSN()
	if err != nil {
		return nil, err
	}

	s, err := store.Open(a.cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	a.log.WithField("driver", s.Driver()).Debug("database opened")
	return s, nil
}

// withServices opens the store, runs fn with services on top of it and
// closes the store again.
func (a *app) withServices(fn func(*service.Services) error) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(service.New(s, a.log))
}
