package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autoblog/internal/engine"
	"autoblog/internal/gate"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in to the AutoBlog backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				pass, err := resolvePassword(cmd, password)
				if err != nil {
					return err
				}
				if err := eng.Auth().Login(cmd.Context(), args[0], pass); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", eng.Auth().Email())
				return attachAccountToLatestSession(cmd, eng)
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an AutoBlog account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				pass, err := resolvePassword(cmd, password)
				if err != nil {
					return err
				}
				if err := eng.Auth().Register(cmd.Context(), args[0], pass); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account created; signed in as %s\n", eng.Auth().Email())
				return attachAccountToLatestSession(cmd, eng)
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				if err := eng.Auth().Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				out := cmd.OutOrStdout()
				if !eng.Auth().SignedIn() {
					fmt.Fprintln(out, "Not signed in.")
					return nil
				}
				account, err := eng.Auth().CurrentUser(cmd.Context())
				if err != nil {
					// The backend may be unreachable; the stored identity
					// still answers the question.
					fmt.Fprintf(out, "%s (cached; backend unreachable)\n", eng.Auth().Email())
					return nil
				}
				fmt.Fprintln(out, account.Email)
				return nil
			})
		},
	}
}

func newDemoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "demo on|off",
		Short: "Toggle demo mode for the latest session",
		Long: "Demo mode disables every access gate for the latest session using a synthesized\n" +
			"demo account. Turning it off restores normal gating for future steps.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				sess, err := resolveSession(cmd.Context(), eng, nil)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch strings.ToLower(args[0]) {
				case "on":
					gate.SkipWithDemo(sess)
					if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
						return err
					}
					fmt.Fprintf(out, "Demo mode on for session %d; gates are disabled.\n", sess.ID)
				case "off":
					sess.DemoMode = false
					if sess.AccountEmail == gate.DemoEmail {
						sess.AccountEmail = ""
					}
					if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
						return err
					}
					fmt.Fprintf(out, "Demo mode off for session %d.\n", sess.ID)
				default:
					return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
				}
				return nil
			})
		},
	}
}

func resolvePassword(cmd *cobra.Command, flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	pass := strings.TrimSpace(line)
	if pass == "" {
		return "", fmt.Errorf("password is required")
	}
	return pass, nil
}

// attachAccountToLatestSession binds a fresh sign-in to the session the user
// is probably working on, so the next gated step passes.
func attachAccountToLatestSession(cmd *cobra.Command, eng *engine.Engine) error {
	sess, err := eng.Sessions().Latest(cmd.Context())
	if err != nil || sess == nil {
		return err
	}
	if sess.HasAccount() {
		return nil
	}
	sess.AccountEmail = eng.Auth().Email()
	sess.GateReason = ""
	if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Attached account to session %d.\n", sess.ID)
	return nil
}
