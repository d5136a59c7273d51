package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/todo/internal/model"
)

func newCredentialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage secrets kept in the system keyring",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key>",
			Short: "Store a secret read from stdin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64<<10))
				if err != nil {
					return fmt.Errorf("reading secret: %w", err)
				}
				value := strings.TrimRight(string(raw), "\r\n")
				if value == "" {
					return fmt.Errorf("empty secret on stdin: %w", model.ErrValidation)
				}

				creds, err := a.openCredentials()
				if err != nil {
					return err
				}
				if err := creds.Set(args[0], value); err != nil {
					return err
				}
				a.log.WithField("key", args[0]).Info("credential stored")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <key>",
			Short: "Remove a secret",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				creds, err := a.openCredentials()
				if err != nil {
					return err
				}
				if err := creds.Delete(args[0]); err != nil {
					return err
				}
				a.log.WithField("key", args[0]).Info("credential deleted")
				return nil
			},
		},
	)
	return cmd
}
