package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohits-web03/reciperater/internal/api/services"
	"github.com/rohits-web03/reciperater/internal/repositories"
	"github.com/rohits-web03/reciperater/internal/session"
)

var (
	registerEmail string
	password      string
)

var registerCmd = &cobra.Command{
	Use:     "register <username>",
	GroupID: "session",
	Short:   "Create an account on the remote stores",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if registerEmail == "" {
			return fmt.Errorf("--email is required")
		}
		pass, err := readPassword(cmd)
		if err != nil {
			return err
		}

		accounts, err := cli.accounts()
		if err != nil {
			return err
		}
		user, err := accounts.Register(cmd.Context(), args[0], registerEmail, pass)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Run \"reciperater login %s\" to start a session.\n", user.Username, user.Username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:     "login <username|email>",
	GroupID: "session",
	Short:   "Start a session so meals are stored remotely",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := readPassword(cmd)
		if err != nil {
			return err
		}

		accounts, err := cli.accounts()
		if err != nil {
			return err
		}
		user, err := accounts.Authenticate(cmd.Context(), args[0], pass)
		if err != nil {
			return err
		}

		token, expires, err := session.Issue(cli.cfg.JWTSecret, user.ID.String(), user.Username, cli.cfg.SessionTTL)
		if err != nil {
			return err
		}
		if err := cli.tokens.Store(token); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s until %s.\n", user.Username, expires.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "session",
	Short:   "End the session and go back to the local archive",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.tokens.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out. Meals are now kept locally.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "session",
	Short:   "Show where meals are stored",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if owner, ok := cli.gate.Owner(); ok {
			fmt.Fprintf(out, "Session active (user %s). Meals are stored remotely.\n", owner)
			return
		}
		fmt.Fprintf(out, "No session. Meals are kept in %s.\n", cli.cfg.ArchivePath)
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "session", Title: "Session:"})

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address of the new account")
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	}

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, statusCmd)
}

func (a *app) accounts() (*services.AccountService, error) {
	db, err := repositories.ConnectDatabase(a.cfg.DB_URL, a.log)
	if err != nil {
		return nil, err
	}
	return services.NewAccountService(db), nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}
