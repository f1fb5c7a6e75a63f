package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-gin-user-admin/internal/client"
)

const defaultServer = "http://127.0.0.1:3000"

type app struct {
	v   *viper.Viper
	api *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("USER_ADMIN")
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Manage users of the user-admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().String("server", defaultServer, "API base URL (env USER_ADMIN_SERVER)")
	root.PersistentFlags().String("session", "", "session file path (env USER_ADMIN_SESSION)")
	_ = a.v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = a.v.BindPFlag("session", root.PersistentFlags().Lookup("session"))

	root.AddCommand(a.signinCmd(), a.logoutCmd(), a.meCmd(), a.usersCmd())
	return root
}

func (a *app) init() error {
	path := a.v.GetString("session")
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return err
		}
		path = p
	}
	a.api = client.New(a.v.GetString("server"), client.FileSession{Path: path})
	return nil
}

func (a *app) signinCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				p, err := readLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			res, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", res.User.Email, res.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func (a *app) meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.api.Me(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return renderUser(cmd.OutOrStdout(), *u)
		},
	}
}

// explain 会话失效时提示重新登录
func explain(err error) error {
	if errors.Is(err, client.ErrNoSession) || client.IsUnauthenticated(err) {
		return fmt.Errorf("%w: run `admin signin` first", err)
	}
	return err
}

func readLine(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
