package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"autoblog/internal/engine"
	"autoblog/internal/export"
	"autoblog/internal/services"
	"autoblog/internal/session"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var fromFile string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "edit [new-content]",
		Short: "Replace the draft article text",
		Long: "Replaces the draft with the given text, the contents of --file, or stdin.\n" +
			"Exported posts are locked and can no longer be edited.",
		Args: cobra.MaximumNArgs(1),
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
				if sess.ContentLocked() {
					fmt.Fprintln(cmd.ErrOrStderr(), "This post has been exported and is locked; start a new session to write another article.")
					return services.Wrap(services.ErrLocked, "content", "edit",
						"Exported posts cannot be modified", nil)
				}
				if sess.Status != session.StatusEditing {
					return services.Wrap(services.ErrValidation, "content", "edit",
						fmt.Sprintf("Nothing to edit while the session is %s", sess.Status), nil)
				}

				newContent, err := readContentInput(cmd, args, fromFile)
				if err != nil {
					return err
				}
				if strings.TrimSpace(newContent) == "" {
					return services.Wrap(services.ErrValidation, "content", "edit",
						"Replacement content is empty", nil)
				}

				sess.Content = newContent
				if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated draft (%d words).\n", export.WordCount(newContent))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read the replacement content from a file ('-' for stdin)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to act on (defaults to the latest)")
	return cmd
}

func newEditAnalysisCommand(ctx *commandContext) *cobra.Command {
	var businessName string
	var description string
	var audience string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "edit-analysis",
		Short: "Correct the website analysis",
		Long: "Updates the business profile fields. Because topics and the draft were derived\n" +
			"from the old analysis, they are cleared and the wizard returns to strategy selection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if businessName == "" && description == "" && audience == "" {
				return fmt.Errorf("nothing to change; pass --business-name, --description, or --audience")
			}
			return ctx.withEngine(func(eng *engine.Engine) error {
				sessArgs := []string{}
				if sessionID != "" {
					sessArgs = append(sessArgs, sessionID)
				}
				sess, err := resolveSession(cmd.Context(), eng, sessArgs)
				if err != nil {
					return err
				}
				if sess.ContentLocked() {
					return services.Wrap(services.ErrLocked, "analysis", "edit",
						"Exported posts cannot be modified", nil)
				}
				if strings.TrimSpace(sess.AnalysisJSON) == "" {
					return services.Wrap(services.ErrValidation, "analysis", "edit",
						"No analysis yet; run 'autoblog new <url>' first", nil)
				}

				analysis := session.AnalysisFromJSON(sess.AnalysisJSON)
				if businessName != "" {
					analysis.BusinessName = businessName
				}
				if description != "" {
					analysis.Description = description
				}
				if audience != "" {
					analysis.TargetAudience = audience
				}
				encoded, err := analysis.ToJSON()
				if err != nil {
					return err
				}

				sess.AnalysisJSON = encoded
				sess.SelectedScenarioID = ""
				sess.TopicsJSON = ""
				sess.SelectedTopicID = ""
				sess.Content = ""
				sess.PreviousContent = ""
				sess.RegenFeedback = ""
				sess.Status = session.StatusAnalyzed
				sess.InitProgress("Analyzing", "Analysis updated")
				if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Analysis updated. Downstream selections were cleared; pick a strategy again.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&businessName, "business-name", "", "New business name")
	cmd.Flags().StringVar(&description, "description", "", "New business description")
	cmd.Flags().StringVar(&audience, "audience", "", "New target audience")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to act on (defaults to the latest)")
	return cmd
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	var feedback string
	var goal, voice, template, length string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Rewrite the draft with feedback and a content strategy",
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
				if sess.ContentLocked() {
					return services.Wrap(services.ErrLocked, "content", "regenerate",
						"Exported posts cannot be modified", nil)
				}
				if sess.Status != session.StatusEditing {
					return services.Wrap(services.ErrValidation, "content", "regenerate",
						fmt.Sprintf("Nothing to regenerate while the session is %s", sess.Status), nil)
				}

				strategyValue := session.ContentStrategyFromJSON(sess.ContentStrategyJSON)
				if goal != "" {
					strategyValue.Goal = goal
				}
				if voice != "" {
					strategyValue.Voice = voice
				}
				if template != "" {
					strategyValue.Template = template
				}
				if length != "" {
					strategyValue.Length = length
				}
				if err := strategyValue.Validate(); err != nil {
					return err
				}
				encoded, err := strategyValue.ToJSON()
				if err != nil {
					return err
				}

				sess.ContentStrategyJSON = encoded
				sess.RegenFeedback = feedback
				sess.Status = session.StatusRegenerating
				sess.InitProgress("Regenerating", "Queued for regeneration")
				if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
					return err
				}

				if err := runAndReport(cmd, eng, sess.ID); err != nil {
					return err
				}

				updated, err := eng.Sessions().GetByID(cmd.Context(), sess.ID)
				if err != nil || updated == nil {
					return err
				}
				if updated.Status == session.StatusEditing && updated.PreviousContent != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Draft rewritten. Compare versions with 'autoblog changes'.")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&feedback, "feedback", "", "Free-text guidance for the rewrite")
	cmd.Flags().StringVar(&goal, "goal", "", "Content goal (awareness, consideration, conversion, retention)")
	cmd.Flags().StringVar(&voice, "voice", "", "Writing voice (expert, friendly, insider, storyteller)")
	cmd.Flags().StringVar(&template, "template", "", "Article template (how-to, problem-solution, listicle, case-study, comprehensive)")
	cmd.Flags().StringVar(&length, "length", "", "Article length (quick, standard, deep)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to act on (defaults to the latest)")
	return cmd
}

func newChangesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "changes [session-id]",
		Short: "Summarize what the last regeneration changed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				sess, err := resolveSession(cmd.Context(), eng, args)
				if err != nil {
					return err
				}
				changes, err := eng.ContentGenerator().ChangeSummary(cmd.Context(), sess)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, changes.Summary)
				for _, change := range changes.KeyChanges {
					fmt.Fprintf(out, "  - %s\n", change)
				}
				if changes.FeedbackApplied {
					fmt.Fprintln(out, "Your feedback was applied.")
				}
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the article to a file",
		Long: "Writes the finished article to the export directory as markdown, HTML, or JSON.\n" +
			"Exporting locks the post; no further edits are possible afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			return ctx.withEngine(func(eng *engine.Engine) error {
				sessArgs := []string{}
				if sessionID != "" {
					sessArgs = append(sessArgs, sessionID)
				}
				sess, err := resolveSession(cmd.Context(), eng, sessArgs)
				if err != nil {
					return err
				}
				if sess.Status != session.StatusEditing && sess.Status != session.StatusExported {
					return services.Wrap(services.ErrValidation, "export", "request",
						fmt.Sprintf("Nothing to export while the session is %s", sess.Status), nil)
				}
				if sess.Status == session.StatusExported {
					// Re-exports are allowed; the content just stays locked.
					sess.PostState = session.PostStateExported
				}

				sess.ExportFormat = string(format)
				sess.Status = session.StatusExporting
				sess.InitProgress("Exporting", "Queued for export")
				if err := eng.Sessions().Update(cmd.Context(), sess); err != nil {
					return err
				}

				if err := runAndReport(cmd, eng, sess.ID); err != nil {
					return err
				}

				updated, err := eng.Sessions().GetByID(cmd.Context(), sess.ID)
				if err != nil || updated == nil {
					return err
				}
				if updated.Status == session.StatusExported && updated.ExportPath != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", updated.ExportPath)
					recordExportInLibrary(cmd, eng, updated)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "markdown", "Export format: markdown, html, or json")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to act on (defaults to the latest)")
	return cmd
}

func readContentInput(cmd *cobra.Command, args []string, fromFile string) (string, error) {
	if fromFile == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fromFile, err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return "", fmt.Errorf("provide the new content as an argument or via --file")
}
