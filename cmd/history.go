package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/journal"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/report"
)

func newHistoryCmd(stdout io.Writer, flags *flagValues) *cobra.Command {
	var (
		projectID string
		id        int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List test cases recorded in the deletion journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, flags)
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled() {
				return &usageError{fmt.Errorf("a journal path is required (--journal or TCCLEAN_JOURNAL_PATH)")}
			}
			if err := cfg.Journal.Validate(); err != nil {
				return &usageError{err}
			}

			var filter uuid.UUID
			if projectID != "" {
				if filter, err = uuid.Parse(projectID); err != nil {
					return &usageError{fmt.Errorf("invalid --project-id: %w", err)}
				}
			}
			if cmd.Flags().Changed("id") && filter == uuid.Nil {
				return &usageError{fmt.Errorf("--id requires --project-id")}
			}

			// bbolt would silently create a missing file
			if _, err := os.Stat(cfg.Journal.Path); err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}

			j, err := journal.NewBboltJournal(&cfg.Journal)
			if err != nil {
				return err
			}
			defer j.Close()

			var entries []model.DeletedTestCase
			switch {
			case cmd.Flags().Changed("id"):
				entry, err := j.Get(filter, id)
				if err != nil {
					return fmt.Errorf("looking up test case %d of project %s: %w", id, filter, err)
				}
				entries = []model.DeletedTestCase{*entry}
			case filter != uuid.Nil:
				entries, err = j.ListProject(filter)
			default:
				entries, err = j.List()
			}
			if err != nil {
				return fmt.Errorf("reading journal: %w", err)
			}

			return printHistory(stdout, entries)
		},
	}
	cmd.Flags().StringVar(&projectID, "project-id", "", "Only list test cases of this project id")
	cmd.Flags().IntVar(&id, "id", 0, "Show one deleted test case (requires --project-id)")

	return cmd
}

func printHistory(w io.Writer, entries []model.DeletedTestCase) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, report.NewStyles(w).Muted.Render("No deleted test cases recorded"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DELETED AT\tPROJECT\tID\tTITLE\tCREATED BY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.DeletedAt.Local().Format(time.DateTime), e.ProjectName, e.ID, e.Title, e.CreatedBy)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d deleted test cases\n", len(entries))
	return err
}
