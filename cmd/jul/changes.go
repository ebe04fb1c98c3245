package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	julsdk "julclient/sdk/go"
)

func (c *cli) changeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "change",
		Short: "Inspect changes and their revisions",
	}

	var status, author string
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			page, err := c.client().ListChanges(cmd.Context(), repo, julsdk.ChangesQuery{
				Status: julsdk.ChangeStatus(status),
				Author: author,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}
			if err := c.print(page, table.Row{"Change", "Status", "Author", "Rev", "Title"}, func() []table.Row {
				rows := make([]table.Row, 0, len(page.Items))
				for _, ch := range page.Items {
					rev := "-"
					if latest, ok := ch.Latest(); ok {
						rev = fmt.Sprintf("%d (%s)", latest.RevIndex, shortSha(latest.CommitSha))
					}
					rows = append(rows, table.Row{ch.ChangeID, ch.Status, ch.Author, rev, truncate(ch.Title, 50)})
				}
				return rows
			}); err != nil {
				return err
			}
			if format, _ := c.format(); format == outputTable {
				fmt.Fprintf(c.out, "Showing %d-%d of %d\n", page.Offset+min(1, len(page.Items)), page.Offset+len(page.Items), page.Total)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "filter by status: draft, ready, published or abandoned")
	listCmd.Flags().StringVar(&author, "author", "", "filter by author")
	listCmd.Flags().IntVar(&limit, "limit", 0, "page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "page offset")

	getCmd := &cobra.Command{
		Use:   "get <change-id>",
		Short: "Show a change and its revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			ch, err := c.client().GetChange(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			format, err := c.format()
			if err != nil {
				return err
			}
			if format != outputTable {
				return c.print(ch, nil, nil)
			}
			fmt.Fprintf(c.out, "%s  %s\n", ch.ChangeID, ch.Title)
			fmt.Fprintf(c.out, "status: %s  author: %s  created: %s\n", ch.Status, ch.Author, ch.CreatedAt)
			rows := make([]table.Row, 0, len(ch.Revisions))
			for _, rev := range ch.Revisions {
				rows = append(rows, table.Row{rev.RevIndex, rev.CommitSha, rev.CreatedAt})
			}
			printTable(c.out, table.Row{"Rev", "Commit", "Created"}, rows)
			return nil
		},
	}

	var fromRev, toRev int
	interdiffCmd := &cobra.Command{
		Use:   "interdiff <change-id>",
		Short: "Show the diff between two revisions of a change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			diff, err := c.client().GetInterdiff(cmd.Context(), repo, args[0], fromRev, toRev)
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, diff)
			if !strings.HasSuffix(diff, "\n") && diff != "" {
				fmt.Fprintln(c.out)
			}
			return nil
		},
	}
	interdiffCmd.Flags().IntVar(&fromRev, "from", 1, "base revision index")
	interdiffCmd.Flags().IntVar(&toRev, "to", 2, "target revision index")

	cmd.AddCommand(listCmd, getCmd, interdiffCmd)
	return cmd
}

func (c *cli) commitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Inspect commits",
	}

	getCmd := &cobra.Command{
		Use:   "get <sha>",
		Short: "Show a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			commit, err := c.client().GetCommit(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return c.printFields(commit, [][2]string{
				{"Sha", commit.Sha},
				{"Change", deref(commit.ChangeID)},
				{"Tree", commit.TreeSha},
				{"Author", fmt.Sprintf("%s <%s>", commit.Author, commit.AuthorEmail)},
				{"Created", commit.CreatedAt},
				{"Message", commit.Message},
			})
		},
	}

	attestationCmd := &cobra.Command{
		Use:   "attestation <sha>",
		Short: "Show the CI attestation of a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			att, err := c.client().GetAttestation(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return c.printAttestation(att)
		},
	}

	cmd.AddCommand(getCmd, attestationCmd)
	return cmd
}

func (c *cli) printAttestation(att julsdk.Attestation) error {
	format, err := c.format()
	if err != nil {
		return err
	}
	if format != outputTable {
		return c.print(att, nil, nil)
	}
	fmt.Fprintf(c.out, "attestation %s  commit %s  %s\n", att.AttestationID, shortSha(att.CommitSha), att.Status)
	printTable(c.out, table.Row{"Signal", "Status", "Detail"}, signalRows(att.Signals))
	if att.LogExcerpt != nil {
		fmt.Fprintln(c.out, *att.LogExcerpt)
	}
	return nil
}

func signalRows(s julsdk.Signals) []table.Row {
	var rows []table.Row
	if s.Format != nil {
		rows = append(rows, table.Row{"format", s.Format.Status, strings.Join(s.Format.Files, ", ")})
	}
	if s.Lint != nil {
		rows = append(rows, table.Row{"lint", s.Lint.Status, fmt.Sprintf("%d errors, %d warnings", s.Lint.Errors, s.Lint.Warnings)})
	}
	if s.Compile != nil {
		rows = append(rows, table.Row{"compile", s.Compile.Status, fmt.Sprintf("%dms", s.Compile.DurationMs)})
	}
	if s.Test != nil {
		rows = append(rows, table.Row{"test", s.Test.Status, fmt.Sprintf("%d passed, %d failed, %d skipped", s.Test.Passed, s.Test.Failed, s.Test.Skipped)})
		for _, f := range s.Test.Failures {
			rows = append(rows, table.Row{"", "", fmt.Sprintf("%s (%s:%d)", f.Name, f.File, f.Line)})
		}
	}
	if s.Coverage != nil {
		detail := "line " + formatPct(s.Coverage.LinePct) + ", branch " + formatPct(s.Coverage.BranchPct)
		if s.Coverage.DiffLinePct != nil {
			detail += ", diff " + formatPct(*s.Coverage.DiffLinePct)
		}
		rows = append(rows, table.Row{"coverage", s.Coverage.Status, detail})
	}
	return rows
}

func (c *cli) attestationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attestation",
		Short: "Query CI attestations",
	}

	var commitSha, changeID, status string
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List attestations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			page, err := c.client().ListAttestations(cmd.Context(), repo, julsdk.AttestationsQuery{
				CommitSha: commitSha,
				ChangeID:  changeID,
				Status:    julsdk.AttestationStatus(status),
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return err
			}
			return c.print(page, table.Row{"Attestation", "Commit", "Type", "Status", "Created"}, func() []table.Row {
				rows := make([]table.Row, 0, len(page.Items))
				for _, a := range page.Items {
					rows = append(rows, table.Row{a.AttestationID, shortSha(a.CommitSha), a.Type, a.Status, a.CreatedAt})
				}
				return rows
			})
		},
	}
	listCmd.Flags().StringVar(&commitSha, "commit", "", "filter by commit sha")
	listCmd.Flags().StringVar(&changeID, "change", "", "filter by change id")
	listCmd.Flags().StringVar(&status, "status", "", "filter by status: running, pass, fail or error")
	listCmd.Flags().IntVar(&limit, "limit", 0, "page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "page offset")

	cmd.AddCommand(listCmd)
	return cmd
}

func (c *cli) ciCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ci",
		Short: "Run CI",
	}

	var profile string
	triggerCmd := &cobra.Command{
		Use:   "trigger <sha>",
		Short: "Trigger a CI run for a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			job, err := c.client().TriggerCI(cmd.Context(), repo, julsdk.TriggerCIInput{
				CommitSha: args[0],
				Profile:   julsdk.CIProfile(profile),
			})
			if err != nil {
				return err
			}
			format, err := c.format()
			if err != nil {
				return err
			}
			if format != outputTable {
				return c.print(job, nil, nil)
			}
			fmt.Fprintf(c.out, "Triggered CI job %s\n", job.JobID)
			return nil
		},
	}
	triggerCmd.Flags().StringVar(&profile, "profile", "", "CI profile: unit, full or lint")

	cmd.AddCommand(triggerCmd)
	return cmd
}
