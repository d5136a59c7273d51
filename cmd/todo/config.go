package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/todo/internal/model"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(a))
	return cmd
}

// newConfigInitCmd writes the effective configuration, defaults plus any
// environment and flag overrides, to the --config path.
func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := os.Stat(a.configPath)
			switch {
			case err == nil && !force:
				return fmt.Errorf("%s already exists, use --force to overwrite: %w",
					a.configPath, model.ErrPrecondition)
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return fmt.Errorf("checking %s: %w", a.configPath, err)
			}

			if err := model.SaveConfig(a.configPath, a.cfg); err != nil {
				return err
			}
			a.log.WithField("path", a.configPath).Info("config written")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
