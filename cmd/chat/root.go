package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fwojciec/chatrelay"
	bt "github.com/fwojciec/chatrelay/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// titleWidth bounds the title column of the history listing.
const titleWidth = 60

func newRootCmd() *cobra.Command {
	var configPath string
	var cfg config

	root := &cobra.Command{
		Use:           "chat",
		Short:         "Chat with a relay-backed assistant in the terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			return cfg.applyFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			m := bt.New(a.manager, a.gate, chatrelay.DefaultTheme())
			if err := bt.Run(cmd.Context(), m); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")
	pf.String("relay-url", "", "Relay base URL")
	pf.String("auth-url", "", "Login endpoint base URL (default: relay URL)")
	pf.String("storage", "", "Storage backend: json or sqlite")
	pf.String("data-dir", "", "Directory for saved chats, credential and log")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.Float64("temperature", 0, "Sampling temperature sent with every prompt")
	pf.Duration("timeout", defaultTimeout, "Deadline for each relay or login request")

	root.AddCommand(
		newLoginCmd(&cfg),
		newLogoutCmd(&cfg),
		newHistoryCmd(&cfg),
		newClearCmd(&cfg),
	)
	return root
}

func newLoginCmd(cfg *config) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; the password is read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && password == "" {
				return fmt.Errorf("read password: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr())
			password = strings.TrimRight(password, "\r\n")

			if err := a.gate.Login(cmd.Context(), email, password); err != nil {
				if errors.Is(err, chatrelay.ErrUnauthorized) {
					return errors.New("login failed: invalid email or password")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", a.gate.Email())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.gate.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newHistoryCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List saved chats, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions := a.manager.History()
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No saved chats")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUPDATED\tTURNS\tTITLE")
			for _, s := range sessions {
				title := strings.Join(strings.Fields(s.Title()), " ")
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					s.ID,
					s.UpdatedAt.Local().Format("2006-01-02 15:04"),
					len(s.Turns),
					runewidth.Truncate(title, titleWidth, "…"),
				)
			}
			return w.Flush()
		},
	}
}

func newClearCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.manager.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All chats cleared.")
			return nil
		},
	}
}
