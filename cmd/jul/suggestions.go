package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	julsdk "julclient/sdk/go"
)

func (c *cli) suggestionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "suggestion",
		Aliases: []string{"suggest"},
		Short:   "Review agent suggestions",
	}

	var changeID, status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			suggestions, err := c.client().ListSuggestions(cmd.Context(), repo, julsdk.SuggestionsQuery{
				ChangeID: changeID,
				Status:   julsdk.SuggestionStatus(status),
			})
			if err != nil {
				return err
			}
			return c.print(suggestions, table.Row{"Suggestion", "Change", "Status", "Confidence", "Diffstat", "Reason"}, func() []table.Row {
				rows := make([]table.Row, 0, len(suggestions))
				for _, s := range suggestions {
					rows = append(rows, table.Row{s.SuggestionID, s.ChangeID, s.Status, fmt.Sprintf("%.2f", s.Confidence), diffstat(s.Diffstat), s.Reason})
				}
				return rows
			})
		},
	}
	listCmd.Flags().StringVar(&changeID, "change", "", "filter by change id")
	listCmd.Flags().StringVar(&status, "status", "", "filter by status: open, accepted, rejected or superseded")

	getCmd := &cobra.Command{
		Use:   "get <suggestion-id>",
		Short: "Show a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			s, err := c.client().GetSuggestion(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return c.printSuggestion(s)
		},
	}

	var reqChange, reason string
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Ask an agent for a suggestion on a change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			s, err := c.client().RequestSuggestion(cmd.Context(), repo, julsdk.RequestSuggestionInput{
				ChangeID: reqChange,
				Reason:   reason,
			})
			if err != nil {
				return err
			}
			return c.printSuggestion(s)
		},
	}
	requestCmd.Flags().StringVar(&reqChange, "change", "", "change id")
	requestCmd.Flags().StringVar(&reason, "reason", "", "why a suggestion is wanted, e.g. fix_tests")
	_ = requestCmd.MarkFlagRequired("change")
	_ = requestCmd.MarkFlagRequired("reason")

	acceptCmd := &cobra.Command{
		Use:   "accept <suggestion-id>",
		Short: "Accept a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			if err := c.client().AcceptSuggestion(cmd.Context(), repo, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Accepted suggestion %s\n", args[0])
			return nil
		},
	}

	rejectCmd := &cobra.Command{
		Use:   "reject <suggestion-id>",
		Short: "Reject a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			if err := c.client().RejectSuggestion(cmd.Context(), repo, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Rejected suggestion %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, getCmd, requestCmd, acceptCmd, rejectCmd)
	return cmd
}

func (c *cli) printSuggestion(s julsdk.Suggestion) error {
	return c.printFields(s, [][2]string{
		{"ID", s.SuggestionID},
		{"Change", s.ChangeID},
		{"Status", string(s.Status)},
		{"Base", s.BaseCommitSha},
		{"Suggested", s.SuggestedCommitSha},
		{"Created By", s.CreatedBy},
		{"Created", s.CreatedAt},
		{"Reason", s.Reason},
		{"Confidence", fmt.Sprintf("%.2f", s.Confidence)},
		{"Diffstat", diffstat(s.Diffstat)},
		{"Description", s.Description},
	})
}

func diffstat(d julsdk.Diffstat) string {
	return fmt.Sprintf("%d files +%d -%d", d.FilesChanged, d.Additions, d.Deletions)
}
