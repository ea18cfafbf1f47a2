package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"autoblog/internal/engine"
	"autoblog/internal/gate"
	"autoblog/internal/session"
	"autoblog/internal/siteurl"
	"autoblog/internal/strategy"
)

func newNewCommand(ctx *commandContext) *cobra.Command {
	var demoFlag bool

	cmd := &cobra.Command{
		Use:   "new <url>",
		Short: "Start a wizard session for a website",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := siteurl.Normalize(args[0])
			if err != nil {
				return fmt.Errorf("%q does not look like a website address (try something like example.com)", args[0])
			}

			return ctx.withEngine(func(eng *engine.Engine) error {
				cfg := ctx.configValue()
				demo := demoFlag || cfg.DemoEnabled()
				email := ""
				if demo {
					email = gate.DemoEmail
				} else if eng.Auth().SignedIn() {
					email = eng.Auth().Email()
				}

				if snap, err := eng.Library().LoadSnapshot(cmd.Context(), email); err == nil && snap != nil {
					fmt.Fprintf(cmd.OutOrStdout(),
						"Note: session %d (%s) is parked at %s; check it with 'autoblog show %d'.\n",
						snap.SessionID, snap.Payload, snap.Status, snap.SessionID)
				}

				sess, err := eng.Sessions().NewSession(cmd.Context(), normalized, email, demo)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created session %d for %s\n", sess.ID, normalized)

				if err := runAndReport(cmd, eng, sess.ID); err != nil {
					return err
				}

				updated, err := eng.Sessions().GetByID(cmd.Context(), sess.ID)
				if err != nil || updated == nil {
					return err
				}
				if updated.Status == session.StatusAnalyzed {
					printAnalysisSummary(cmd, updated)
					analysis := session.AnalysisFromJSON(updated.AnalysisJSON)
					if _, err := eng.Library().SaveProject(cmd.Context(), projectFromSession(updated, analysis)); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not save project: %v\n", err)
					}
					if err := eng.Library().RecordActivity(cmd.Context(), "analysis", normalized, updated.ID); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not record activity: %v\n", err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&demoFlag, "demo", false, "Run the session in demo mode (no account gates)")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show workflow status and stage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				status := eng.Status(cmd.Context())
				if asJSON {
					return writeJSON(cmd, status)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Signed in: %s", yesNo(status.SignedIn))
				if status.SignedIn {
					fmt.Fprintf(out, " (%s)", status.AccountEmail)
				}
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Demo mode: %s\n", yesNo(status.DemoMode))
				fmt.Fprintf(out, "Data dir:  %s\n", status.DataDir)
				if dbHealth, err := eng.Sessions().CheckHealth(cmd.Context()); err != nil {
					fmt.Fprintf(out, "Database:  error (%v)\n", err)
				} else if dbHealth.IntegrityCheck && len(dbHealth.MissingColumns) == 0 {
					fmt.Fprintf(out, "Database:  ok (%d sessions)\n", dbHealth.TotalSessions)
				} else {
					fmt.Fprintln(out, "Database:  degraded")
				}

				if len(status.Workflow.SessionStats) > 0 {
					rows := make([][]string, 0, len(status.Workflow.SessionStats))
					for _, st := range session.AllStatuses() {
						if count := status.Workflow.SessionStats[st]; count > 0 {
							rows = append(rows, []string{string(st), strconv.Itoa(count)})
						}
					}
					fmt.Fprintln(out, renderTable(out, []string{"Status", "Sessions"}, rows,
						[]columnAlignment{alignLeft, alignRight}))
				} else {
					fmt.Fprintln(out, "No sessions yet")
				}

				names := make([]string, 0, len(status.Workflow.StageHealth))
				for name := range status.Workflow.StageHealth {
					names = append(names, name)
				}
				sort.Strings(names)
				healthRows := make([][]string, 0, len(names))
				for _, name := range names {
					health := status.Workflow.StageHealth[name]
					detail := health.Detail
					if detail == "" && health.Ready {
						detail = "ready"
					}
					healthRows = append(healthRows, []string{name, yesNo(health.Ready), truncateText(detail, 60)})
				}
				if len(healthRows) > 0 {
					fmt.Fprintln(out, renderTable(out, []string{"Stage", "Ready", "Detail"}, healthRows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft}))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List wizard sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				var statuses []session.Status
				if statusFilter != "" {
					status, ok := session.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					statuses = append(statuses, status)
				}
				sessions, err := eng.Sessions().List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions yet")
					return nil
				}

				rows := make([][]string, 0, len(sessions))
				for _, sess := range sessions {
					rows = append(rows, []string{
						strconv.FormatInt(sess.ID, 10),
						truncateText(sess.WebsiteURL, 40),
						string(sess.Status),
						formatTimestamp(sess.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Website", "Status", "Created"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show sessions with this status")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				sess, err := resolveSession(cmd.Context(), eng, args)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, sess)
				}

				out := cmd.OutOrStdout()
				analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
				fmt.Fprintf(out, "Session %d\n", sess.ID)
				fmt.Fprintf(out, "  Website:   %s\n", sess.WebsiteURL)
				fmt.Fprintf(out, "  Status:    %s\n", sess.Status)
				fmt.Fprintf(out, "  Post:      %s\n", sess.PostState)
				if analysis.BusinessName != "" {
					fmt.Fprintf(out, "  Business:  %s\n", analysis.BusinessName)
				}
				if sess.SelectedScenarioID != "" {
					fmt.Fprintf(out, "  Strategy:  %s\n", sess.SelectedScenarioID)
				}
				if sess.SelectedTopicID != "" {
					fmt.Fprintf(out, "  Topic:     %s\n", sess.SelectedTopicID)
				}
				if sess.ExportPath != "" {
					fmt.Fprintf(out, "  Exported:  %s (%s)\n", sess.ExportPath, sess.ExportFormat)
				}
				if sess.ProgressMessage != "" {
					fmt.Fprintf(out, "  Progress:  %s (%.0f%%)\n", sess.ProgressMessage, sess.ProgressPercent)
				}
				if sess.GateReason != "" {
					printGateHint(cmd, sess)
				}
				if sess.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:     %s\n", sess.ErrorMessage)
				}
				if strings.TrimSpace(sess.Content) != "" {
					fmt.Fprintln(out)
					fmt.Fprintln(out, sess.Content)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the session as JSON")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process sessions in the background until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				if err := eng.Start(runCtx); err != nil {
					return err
				}
				defer eng.Stop()
				fmt.Fprintln(cmd.OutOrStdout(), "AutoBlog engine running; press Ctrl-C to stop.")
				<-runCtx.Done()
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var exported bool

	cmd := &cobra.Command{
		Use:   "reset [session-id]",
		Short: "Discard sessions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				out := cmd.OutOrStdout()
				switch {
				case all:
					removed, err := eng.Sessions().Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d sessions\n", removed)
				case exported:
					removed, err := eng.Sessions().ClearExported(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d exported sessions\n", removed)
				default:
					sess, err := resolveSession(cmd.Context(), eng, args)
					if err != nil {
						return err
					}
					removed, err := eng.Sessions().Remove(cmd.Context(), sess.ID)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("session %d was already gone", sess.ID)
					}
					fmt.Fprintf(out, "Removed session %d\n", sess.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every session")
	cmd.Flags().BoolVar(&exported, "exported", false, "Remove only exported sessions")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [session-id...]",
		Short: "Send failed sessions back through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid session id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withEngine(func(eng *engine.Engine) error {
				retried, err := eng.Sessions().RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %d sessions for retry\n", retried)
				return eng.RunUntilIdle(cmd.Context())
			})
		},
	}
}

func printAnalysisSummary(cmd *cobra.Command, sess *session.Session) {
	out := cmd.OutOrStdout()
	analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
	fmt.Fprintf(out, "\nAnalysis for %s\n", analysis.BusinessName)
	if analysis.Description != "" {
		fmt.Fprintf(out, "  %s\n", analysis.Description)
	}
	if analysis.Fallback {
		fmt.Fprintln(out, "  (automatic analysis was unavailable; showing a general profile)")
	}
	visible := strategy.Visible(analysis, sess)
	if len(visible) > 0 {
		fmt.Fprintln(out, "\nNext: pick a strategy with 'autoblog select-strategy <id>'")
	}
}
