package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/config"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

func (a *app) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API token sent to the server",
	}
	cmd.AddCommand(a.authLoginCmd())
	cmd.AddCommand(a.authLogoutCmd())
	cmd.AddCommand(a.authStatusCmd())
	cmd.AddCommand(a.authWhoAmICmd())
	return cmd
}

func (a *app) authLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token",
		Long: `Store an API token in the settings directory (owner-only file).
Without --token the token is read from a masked prompt.

TADA_TOKEN, when set, is used instead of the stored token.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")
			ttl, _ := cmd.Flags().GetDuration("expires-in")
			if ttl < 0 {
				return usageErrorf("--expires-in must not be negative")
			}

			if strings.TrimSpace(token) == "" {
				t, err := promptToken(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				token = t
			}
			if strings.TrimSpace(token) == "" {
				return usageErrorf("empty token")
			}

			var expires *time.Time
			if ttl > 0 {
				at := time.Now().Add(ttl)
				expires = &at
			}
			if err := config.SetToken(a.dir, token, expires); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			ui.OK("token saved")
			return nil
		},
	}
	cmd.Flags().String("token", "", "token value (prompted when omitted)")
	cmd.Flags().Duration("expires-in", 0, "warn when the token is used after this long (e.g. 720h)")
	return cmd
}

// promptToken reads a token without echoing it.
func promptToken(in io.Reader, out io.Writer) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdin:  io.NopCloser(in),
		Stdout: out,
		Stderr: out,
	})
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	defer rl.Close()

	b, err := rl.ReadPassword("API token: ")
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(b), nil
}

func (a *app) authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteToken(a.dir); err != nil {
				return fmt.Errorf("remove token: %w", err)
			}
			if strings.TrimSpace(os.Getenv(config.EnvToken)) != "" {
				ui.OK("stored token removed; " + config.EnvToken + " is still set and will be used")
				return nil
			}
			ui.OK("logged out")
			return nil
		},
	}
}

func (a *app) authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which token is in use",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ti, err := config.GetToken(a.dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "server: %s\n", a.cfg.ServerURL)
			if ti == nil {
				fmt.Fprintln(out, "token:  none")
				return nil
			}
			fmt.Fprintf(out, "token:  %s (from %s)\n", maskToken(ti.Token), ti.Source)
			if ti.ExpiresAt != nil {
				state := "expires"
				if time.Now().After(*ti.ExpiresAt) {
					state = "expired"
				}
				fmt.Fprintf(out, "%s: %s\n", state, ti.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func (a *app) authWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Decode the token's JWT payload locally (unverified)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ti, err := config.GetToken(a.dir)
			if err != nil {
				return err
			}
			if ti == nil {
				return usageErrorf("not logged in; run `todo auth login` or set %s", config.EnvToken)
			}
			payload, ok := jwtPayload(ti.Token)
			if !ok {
				fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(out, "source:", ti.Source)
				return nil
			}
			fmt.Fprintln(out, "JWT payload:")
			fmt.Fprintln(out, payload)
			return nil
		},
	}
}

// jwtPayload returns the decoded middle segment of a three-part token.
func jwtPayload(tok string) (string, bool) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return "", false
	}
	seg := strings.TrimRight(parts[1], "=")
	dec, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return "", false
	}
	return string(dec), true
}

// maskToken keeps the last four characters.
func maskToken(tok string) string {
	if len(tok) <= 4 {
		return strings.Repeat("*", len(tok))
	}
	return strings.Repeat("*", 4) + tok[len(tok)-4:]
}
