package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
)

// passwordEnv lets scripts log in without a prompt
const passwordEnv = "STREAMLY_PASSWORD"

func newLoginCmd() *cobra.Command {
	var remember bool

	cmd := &cobra.Command{
		Use:   "login <email-or-username>",
		Short: "Log in and save the session",
		Long: `Log in with an email or username. The password is read from
$STREAMLY_PASSWORD, or from the first line of stdin.

With --remember the session is kept across runs; otherwise it lasts for
this process only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				session, err := client.Auth.Login(ctx, args[0], password, remember)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(cmd.OutOrStdout(), session.User)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(session.User))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&remember, "remember", true, "keep the session across runs")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				if err := client.Auth.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				if !client.Auth.IsAuthenticated(ctx) {
					return streamly.ErrNotAuthenticated
				}
				user, err := client.Users.Profile(ctx)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(cmd.OutOrStdout(), user)
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "User:    %s\n", displayName(user))
				fmt.Fprintf(w, "Email:   %s\n", user.Email)
				fmt.Fprintf(w, "Role:    %s\n", user.Role)
				fmt.Fprintf(w, "Premium: %t\n", user.IsPremium)
				fmt.Fprintf(w, "Wallet:  %.2f\n", user.Balance())
				fmt.Fprintf(w, "Server:  %s\n", client.Endpoint(streamly.ServiceUser))
				fmt.Fprintf(w, "Device:  %s\n", client.DeviceID())
				return nil
			})
		},
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func displayName(user *streamly.UserProfile) string {
	if user == nil {
		return ""
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	if user.Username != "" {
		return user.Username
	}
	return user.Email
}
