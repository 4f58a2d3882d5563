package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bft-labs/chatship/pkg/sender/matrix"
)

func (a *app) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Exchange a Matrix user and password for an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateLogin(); err != nil {
				return err
			}

			client := &http.Client{Timeout: a.cfg.HTTPTimeout}
			token, err := matrix.Login(cmd.Context(), client, a.cfg.HomeServer, a.cfg.User, a.cfg.Password)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
