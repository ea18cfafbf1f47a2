package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"autoblog/internal/engine"
	"autoblog/internal/export"
	"autoblog/internal/library"
	"autoblog/internal/session"
)

func newPostsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "List exported posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				posts, err := eng.Library().Posts(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(posts) == 0 {
					fmt.Fprintln(out, "No exported posts yet.")
					return nil
				}
				rows := make([][]string, 0, len(posts))
				for _, post := range posts {
					rows = append(rows, []string{
						truncateText(post.Title, 40),
						post.Format,
						strconv.Itoa(post.WordCount),
						fmt.Sprintf("%d min", post.ReadingTime),
						strconv.Itoa(post.ExportCount),
						formatTimestamp(post.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Title", "Format", "Words", "Read", "Exports", "Created"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}))
				return nil
			})
		},
	}
}

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	var removeID string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List saved website projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				out := cmd.OutOrStdout()
				if removeID != "" {
					removed, err := eng.Library().RemoveProject(cmd.Context(), removeID)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("no project with id %s", removeID)
					}
					fmt.Fprintln(out, "Project removed.")
					return nil
				}

				projects, err := eng.Library().Projects(cmd.Context())
				if err != nil {
					return err
				}
				if len(projects) == 0 {
					fmt.Fprintln(out, "No saved projects yet; 'autoblog new <url>' adds one.")
					return nil
				}
				rows := make([][]string, 0, len(projects))
				for _, project := range projects {
					rows = append(rows, []string{
						project.ID,
						truncateText(project.BusinessName, 30),
						truncateText(project.WebsiteURL, 40),
						formatTimestamp(project.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Business", "Website", "Saved"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&removeID, "remove", "", "Remove the project with this id")
	return cmd
}

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				events, err := eng.Library().RecentActivity(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No activity recorded yet.")
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, event := range events {
					rows = append(rows, []string{
						formatTimestamp(event.OccurredAt),
						event.Kind,
						truncateText(event.Detail, 60),
					})
				}
				fmt.Fprintln(out, renderTable(out, []string{"When", "Event", "Detail"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum number of events to show")
	return cmd
}

func projectFromSession(sess *session.Session, analysis session.WebsiteAnalysis) library.Project {
	return library.Project{
		WebsiteURL:   sess.WebsiteURL,
		BusinessName: analysis.BusinessName,
		AnalysisJSON: sess.AnalysisJSON,
	}
}

func recordExportInLibrary(cmd *cobra.Command, eng *engine.Engine, sess *session.Session) {
	topics := session.TopicsFromJSON(sess.TopicsJSON)
	title := "Untitled Post"
	if topic, ok := session.TopicByID(topics, sess.SelectedTopicID); ok {
		title = topic.Title
	}

	// A re-export bumps the counter on the row the first export created.
	if existing, ok, err := eng.Library().PostBySession(cmd.Context(), sess.ID); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not look up the post in the library: %v\n", err)
	} else if ok {
		if err := eng.Library().RecordPostExport(cmd.Context(), existing.ID); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not update the export counter: %v\n", err)
		}
	} else {
		post := library.Post{
			SessionID:   sess.ID,
			Title:       title,
			Slug:        export.Slug(title),
			Content:     sess.Content,
			Format:      sess.ExportFormat,
			WordCount:   export.WordCount(sess.Content),
			ReadingTime: export.ReadingTime(sess.Content),
		}
		if _, err := eng.Library().SavePost(cmd.Context(), post); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not save post to the library: %v\n", err)
		}
	}
	if err := eng.Library().RecordActivity(cmd.Context(), "export", title, sess.ID); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not record activity: %v\n", err)
	}
}
