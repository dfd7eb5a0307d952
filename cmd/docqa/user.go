package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/internal/config"
	"docqa/internal/storage"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users and their API tokens",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a user and print their bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		u, token, err := store.CreateUser(cmd.Context(), args[0])
		if err != nil {
			printError("could not create user: %v", err)
			return err
		}

		printSuccess("Created user %q (id %s)", u.Name, u.ID)
		printWarning("Store this token now; it cannot be shown again.")
		fmt.Fprintln(os.Stdout, token)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		users, err := store.ListUsers(cmd.Context())
		if err != nil {
			printError("could not list users: %v", err)
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(os.Stderr, "no users")
			return nil
		}
		for _, u := range users {
			fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", u.ID, u.Name, u.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
}
