package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoblog/internal/engine"
	"autoblog/internal/gate"
	"autoblog/internal/services"
	"autoblog/internal/session"
)

func newTopicsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "topics [session-id]",
		Short: "List generated topic ideas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				sess, err := resolveSession(cmd.Context(), eng, args)
				if err != nil {
					return err
				}
				return printTopics(cmd, eng, sess.ID)
			})
		},
	}
}

func newSelectTopicCommand(ctx *commandContext) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "select-topic <topic-id>",
		Short: "Choose a topic and generate the article",
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
				if sess.Status != session.StatusTopicsReady {
					return services.Wrap(services.ErrValidation, "topics", "select",
						fmt.Sprintf("Cannot select a topic while the session is %s", sess.Status), nil)
				}
				topics := session.TopicsFromJSON(sess.TopicsJSON)
				if _, ok := session.TopicByID(topics, args[0]); !ok {
					return services.Wrap(services.ErrNotFound, "topics", "select",
						fmt.Sprintf("Topic %q not found; run 'autoblog topics' to list them", args[0]), nil)
				}

				sess.SelectedTopicID = args[0]
				sess.Status = session.StatusGeneratingContent
				sess.InitProgress("Writing", "Queued for content generation")
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
				if updated.Status == session.StatusEditing {
					fmt.Fprintln(cmd.OutOrStdout(), "\nDraft ready. View it with 'autoblog show', refine it with 'autoblog edit' or 'autoblog regenerate', then 'autoblog export'.")
					if err := eng.Library().RecordActivity(cmd.Context(), "content", updated.SelectedTopicID, updated.ID); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not record activity: %v\n", err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to act on (defaults to the latest)")
	return cmd
}

func printTopics(cmd *cobra.Command, eng *engine.Engine, sessionID int64) error {
	sess, err := eng.Sessions().GetByID(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no session with id %d", sessionID)
	}

	out := cmd.OutOrStdout()
	topics := session.TopicsFromJSON(sess.TopicsJSON)
	if len(topics) == 0 {
		fmt.Fprintln(out, "No topic ideas available. Pick a different strategy or try again later.")
		return nil
	}

	rows := make([][]string, 0, len(topics))
	for _, topic := range topics {
		selected := ""
		if topic.ID == sess.SelectedTopicID {
			selected = "*"
		}
		rows = append(rows, []string{
			selected,
			topic.ID,
			truncateText(topic.Title, 50),
			truncateText(topic.Category, 25),
		})
	}
	fmt.Fprintln(out, renderTable(out, []string{"", "ID", "Topic", "Category"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))

	if sess.Status == session.StatusTopicsReady && sess.SelectedTopicID == "" {
		if gate.Requires(session.StatusGeneratingContent, sess.HasAccount(), sess.DemoMode) {
			fmt.Fprintln(out, "Generating an article needs an email signup; run 'autoblog register <email>' or 'autoblog demo on' first.")
		}
		fmt.Fprintln(out, "Pick one with 'autoblog select-topic <id>'.")
	}
	return nil
}
