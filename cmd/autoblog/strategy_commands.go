package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoblog/internal/engine"
	"autoblog/internal/session"
	"autoblog/internal/strategy"
)

func newStrategiesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies [session-id]",
		Short: "List the customer strategies suggested by the analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				sess, err := resolveSession(cmd.Context(), eng, args)
				if err != nil {
					return err
				}
				analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
				if len(analysis.Scenarios) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No strategies yet; run 'autoblog new <url>' first.")
					return nil
				}

				out := cmd.OutOrStdout()
				visible := strategy.Visible(analysis, sess)
				rows := make([][]string, 0, len(visible))
				for _, scenario := range visible {
					selected := ""
					if scenario.ID == sess.SelectedScenarioID {
						selected = "*"
					}
					rows = append(rows, []string{
						selected,
						scenario.ID,
						truncateText(scenario.Title, 40),
						truncateText(scenario.CustomerProblem, 60),
					})
				}
				fmt.Fprintln(out, renderTable(out, []string{"", "ID", "Strategy", "Customer problem"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))

				if locked := strategy.Locked(analysis, sess); locked > 0 {
					fmt.Fprintf(out, "%d more strategies available; run 'autoblog unlock' to see them all.\n", locked)
				}
				return nil
			})
		},
	}
}

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock [session-id]",
		Short: "Reveal the full strategy list",
		Long:  "Reveals every suggested strategy. No payment is processed; the unlock is simulated.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				sess, err := resolveSession(cmd.Context(), eng, args)
				if err != nil {
					return err
				}
				strategy.Unlock(sess)
				if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All strategies unlocked.")
				return nil
			})
		},
	}
}

func newSelectStrategyCommand(ctx *commandContext) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "select-strategy <strategy-id>",
		Short: "Choose a strategy and generate topic ideas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				sessArgs := []string{}
				if sessionID != "" {
					sessArgs = append(sessArgs, sessionID)
				}
				sess, err := resolveSession(cmd.Context(), eng, sessArgs)
				if err != nil {
					return err
				}

				analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
				if err := strategy.Select(sess, analysis, args[0]); err != nil {
					return err
				}
				if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
					return err
				}

				if err := runAndReport(cmd, eng, sess.ID); err != nil {
					return err
				}
				return printTopics(cmd, eng, sess.ID)
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to act on (defaults to the latest)")
	return cmd
}
