package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"healthdash/internal/auth"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var newPassword string

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			u, _, err := a.auth.SignUp(ctx, auth.Credentials{Email: args[0], Password: newPassword})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Email, u.ID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().StringVar(&newPassword, "password", "", "Password, at least 8 characters")
	_ = userCreateCmd.MarkFlagRequired("password")
}
