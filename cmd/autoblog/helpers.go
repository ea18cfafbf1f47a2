package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autoblog/internal/engine"
	"autoblog/internal/library"
	"autoblog/internal/session"
)

// resolveSession maps an optional numeric argument to a stored session,
// defaulting to the most recent one.
func resolveSession(ctx context.Context, eng *engine.Engine, args []string) (*session.Session, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid session id %q", args[0])
		}
		sess, err := eng.Sessions().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, fmt.Errorf("no session with id %d", id)
		}
		return sess, nil
	}

	sess, err := eng.Sessions().Latest(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.New("no sessions yet; start one with 'autoblog new <url>'")
	}
	return sess, nil
}

// runAndReport drives the workflow until the session parks and prints where
// it landed.
func runAndReport(cmd *cobra.Command, eng *engine.Engine, sessionID int64) error {
	out := cmd.OutOrStdout()

	if err := eng.RunUntilIdle(cmd.Context()); err != nil {
		if errors.Is(err, engine.ErrBusy) {
			fmt.Fprintln(out, "A background autoblog process is running; it will pick this step up.")
			return nil
		}
		return err
	}

	sess, err := eng.Sessions().GetByID(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %d disappeared", sessionID)
	}
	printSessionOutcome(cmd, sess)
	persistSnapshot(cmd, eng, sess)
	return nil
}

// persistSnapshot keeps the library's resume snapshot in step with the
// session: parked sessions are saved, finished ones clear the slot.
// Snapshot upkeep is advisory and never fails the command.
func persistSnapshot(cmd *cobra.Command, eng *engine.Engine, sess *session.Session) {
	ctx := cmd.Context()
	switch {
	case sess.Status == session.StatusExported:
		if err := eng.Library().ClearSnapshot(ctx, sess.AccountEmail); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not clear saved progress: %v\n", err)
		}
	case session.IsParkedStatus(sess.Status):
		snap := library.Snapshot{
			Owner:     sess.AccountEmail,
			SessionID: sess.ID,
			Status:    sess.Status,
			Payload:   sess.WebsiteURL,
		}
		if err := eng.Library().SaveSnapshot(ctx, snap); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not save progress: %v\n", err)
		}
	}
}

func printSessionOutcome(cmd *cobra.Command, sess *session.Session) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %d is now %s\n", sess.ID, sess.Status)
	if sess.GateReason != "" {
		printGateHint(cmd, sess)
	}
	if sess.ErrorMessage != "" {
		fmt.Fprintf(out, "Last error: %s\n", sess.ErrorMessage)
	}
}

func printGateHint(cmd *cobra.Command, sess *session.Session) {
	out := cmd.OutOrStdout()
	switch sess.GateReason {
	case "email":
		fmt.Fprintln(out, "This step needs an email signup. Run 'autoblog register <email>' or 'autoblog demo on'.")
	case "account":
		fmt.Fprintln(out, "This step needs an account. Run 'autoblog login <email>', 'autoblog register <email>', or 'autoblog demo on'.")
	default:
		fmt.Fprintf(out, "Access gate: %s\n", sess.GateReason)
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func truncateText(value string, max int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if max <= 3 || len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}
