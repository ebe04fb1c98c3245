package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	julsdk "julclient/sdk/go"
)

func (c *cli) repoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repositories",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := c.client().ListRepos(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(repos, table.Row{"Name", "Visibility", "Default Branch", "Description", "Updated"}, func() []table.Row {
				rows := make([]table.Row, 0, len(repos))
				for _, r := range repos {
					rows = append(rows, table.Row{r.Name, r.Visibility, r.DefaultBranch, truncate(deref(r.Description), 40), r.UpdatedAt})
				}
				return rows
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Show a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.client().GetRepo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printRepo(repo)
		},
	}

	var description, visibility string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.client().CreateRepo(cmd.Context(), julsdk.CreateRepoInput{
				Name:        args[0],
				Description: description,
				Visibility:  julsdk.Visibility(visibility),
			})
			if err != nil {
				return err
			}
			return c.printRepo(repo)
		},
	}
	createCmd.Flags().StringVar(&description, "description", "", "repository description")
	createCmd.Flags().StringVar(&visibility, "visibility", "", "public or private")

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().DeleteRepo(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted repository %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, getCmd, createCmd, deleteCmd)
	return cmd
}

func (c *cli) printRepo(r julsdk.Repo) error {
	return c.printFields(r, [][2]string{
		{"ID", r.ID},
		{"Name", r.Name},
		{"Visibility", string(r.Visibility)},
		{"Default Branch", r.DefaultBranch},
		{"Description", deref(r.Description)},
		{"Created", r.CreatedAt},
		{"Updated", r.UpdatedAt},
	})
}

func (c *cli) workspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Inspect and promote workspaces",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			workspaces, err := c.client().ListWorkspaces(cmd.Context(), repo)
			if err != nil {
				return err
			}
			return c.print(workspaces, table.Row{"ID", "User", "Name", "Ref", "Head", "Synced"}, func() []table.Row {
				rows := make([]table.Row, 0, len(workspaces))
				for _, w := range workspaces {
					rows = append(rows, table.Row{w.ID, w.User, w.Name, w.Ref, shortSha(w.HeadCommit), w.SyncedAt})
				}
				return rows
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <workspace-id>",
		Short: "Show a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			w, err := c.client().GetWorkspace(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return c.printFields(w, [][2]string{
				{"ID", w.ID},
				{"User", w.User},
				{"Name", w.Name},
				{"Repo ID", w.RepoID},
				{"Ref", w.Ref},
				{"Head", w.HeadCommit},
				{"Synced", w.SyncedAt},
			})
		},
	}

	var target, commit string
	promoteCmd := &cobra.Command{
		Use:   "promote <workspace-id>",
		Short: "Promote a workspace onto a target branch",
		Long: `Promote a workspace onto a target branch.

The server may refuse with a policy violation when required checks have
not passed; the failing checks are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			res, err := c.client().Promote(cmd.Context(), repo, args[0], julsdk.PromoteInput{
				TargetBranch: target,
				CommitSha:    commit,
			})
			if err != nil {
				return err
			}
			return c.printFields(res, [][2]string{
				{"Success", fmt.Sprint(res.Success)},
				{"Ref", res.Ref},
				{"Commit", res.CommitSha},
			})
		},
	}
	promoteCmd.Flags().StringVar(&target, "to", "main", "target branch")
	promoteCmd.Flags().StringVar(&commit, "commit", "", "commit to promote (defaults to the workspace head)")

	cmd.AddCommand(listCmd, getCmd, promoteCmd)
	return cmd
}
