package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/internal/service"
)

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List, create, edit and delete users",
	}
	cmd.AddCommand(a.usersListCmd(), a.usersGetCmd(), a.usersCreateCmd(), a.usersUpdateCmd(), a.usersDeleteCmd())
	return cmd
}

func (a *app) usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			us, err := a.api.ListUsers(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return renderUsers(cmd.OutOrStdout(), us)
		},
	}
}

func (a *app) usersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.api.GetUser(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			return renderUser(cmd.OutOrStdout(), *u)
		},
	}
}

func (a *app) usersCreateCmd() *cobra.Command {
	var in service.CreateUserInput
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Role = domain.Role(role)
			u, err := a.api.CreateUser(cmd.Context(), in)
			if err != nil {
				return explain(err)
			}
			return renderUser(cmd.OutOrStdout(), *u)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", "user", "admin or user")
	return cmd
}

// usersUpdateCmd 只发送显式传入的字段
func (a *app) usersUpdateCmd() *cobra.Command {
	var name, email, password, role string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a user; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in service.UpdateUserInput
			f := cmd.Flags()
			if f.Changed("name") {
				in.Name = &name
			}
			if f.Changed("email") {
				in.Email = &email
			}
			if f.Changed("password") {
				in.Password = &password
			}
			if f.Changed("role") {
				r := domain.Role(role)
				in.Role = &r
			}
			u, err := a.api.UpdateUser(cmd.Context(), args[0], in)
			if err != nil {
				return explain(err)
			}
			return renderUser(cmd.OutOrStdout(), *u)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&password, "password", "", "new password (empty keeps the current one)")
	cmd.Flags().StringVar(&role, "role", "", "admin or user")
	return cmd
}

func (a *app) usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteUser(cmd.Context(), args[0]); err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "user deleted")
			return nil
		},
	}
}
