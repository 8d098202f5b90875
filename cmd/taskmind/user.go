package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskmind/internal/auth"
)

// userCmd manages accounts for the HTTP API
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var (
	registerUsername string
	registerEmail    string
	registerPassword string
)

var userRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := auth.NewManager(cfg.UsersDBPath())
		if err != nil {
			return err
		}
		defer users.Close()

		user, err := users.Register(cmd.Context(), registerUsername, registerEmail, registerPassword)
		if err != nil {
			return err
		}
		logger.Info("User registered", zap.Int64("id", user.ID), zap.String("username", user.Username))
		fmt.Printf("Registered user %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var userInfoCmd = &cobra.Command{
	Use:   "info [username-or-email]",
	Short: "Show account details and task counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := auth.NewManager(cfg.UsersDBPath())
		if err != nil {
			return err
		}
		defer users.Close()

		user, err := users.FindUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		stats, err := users.GetUserStats(cmd.Context(), user.ID)
		if err != nil {
			return err
		}

		fmt.Printf("ID:         %d\n", user.ID)
		fmt.Printf("Username:   %s\n", user.Username)
		fmt.Printf("Email:      %s\n", user.Email)
		fmt.Printf("Created:    %s\n", user.CreatedAt.Format("2006-01-02 15:04"))
		if user.LastLogin != nil {
			fmt.Printf("Last login: %s\n", user.LastLogin.Format("2006-01-02 15:04"))
		}
		fmt.Printf("Sessions:   %d active\n", stats.ActiveSessions)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [username-or-email]",
	Short: "Delete an account and all of its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := auth.NewManager(cfg.UsersDBPath())
		if err != nil {
			return err
		}
		defer users.Close()

		user, err := users.FindUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.DeleteAll(cmd.Context(), strconv.FormatInt(user.ID, 10))
		if err != nil {
			return err
		}
		if err := users.DeleteUser(cmd.Context(), user.ID); err != nil {
			return err
		}

		logger.Info("User deleted", zap.Int64("id", user.ID), zap.Int64("tasks_removed", removed))
		fmt.Printf("Deleted user %s and %d tasks\n", user.Username, removed)
		return nil
	},
}

func init() {
	userRegisterCmd.Flags().StringVar(&registerUsername, "username", "", "Username (required)")
	userRegisterCmd.Flags().StringVar(&registerEmail, "email", "", "Email address (required)")
	userRegisterCmd.Flags().StringVar(&registerPassword, "password", "", "Password (required)")
	userRegisterCmd.MarkFlagRequired("username")
	userRegisterCmd.MarkFlagRequired("email")
	userRegisterCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userRegisterCmd)
	userCmd.AddCommand(userInfoCmd)
	userCmd.AddCommand(userDeleteCmd)
}
