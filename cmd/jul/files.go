package main

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	julsdk "julclient/sdk/go"
)

func (c *cli) fileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Browse repository files",
	}

	var treeRef string
	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the file tree at a ref",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			nodes, err := c.client().GetFileTree(cmd.Context(), repo, treeRef)
			if err != nil {
				return err
			}
			format, err := c.format()
			if err != nil {
				return err
			}
			if format != outputTable {
				return c.print(nodes, nil, nil)
			}
			lw := list.NewWriter()
			lw.SetOutputMirror(c.out)
			lw.SetStyle(list.StyleConnectedLight)
			appendNodes(lw, nodes)
			lw.Render()
			return nil
		},
	}
	treeCmd.Flags().StringVar(&treeRef, "ref", "", "branch, tag or commit (default HEAD)")

	var catRef string
	catCmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			content, err := c.client().GetFileContent(cmd.Context(), repo, args[0], catRef)
			if err != nil {
				return err
			}
			format, err := c.format()
			if err != nil {
				return err
			}
			if format != outputTable {
				return c.print(content, nil, nil)
			}
			if content.Encoding == julsdk.EncodingBase64 {
				data, err := base64.StdEncoding.DecodeString(content.Content)
				if err != nil {
					return goerr.Wrap(err, "failed to decode file content", goerr.V("path", content.Path))
				}
				_, err = c.out.Write(data)
				return err
			}
			fmt.Fprint(c.out, content.Content)
			return nil
		},
	}
	catCmd.Flags().StringVar(&catRef, "ref", "", "branch, tag or commit (default HEAD)")

	var historyRef string
	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history <path>",
		Short: "List commits that touched a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			entries, err := c.client().GetFileHistory(cmd.Context(), repo, args[0], julsdk.FileHistoryOptions{
				Ref:   historyRef,
				Limit: historyLimit,
			})
			if err != nil {
				return err
			}
			return c.print(entries, table.Row{"Commit", "Change", "Type", "Author", "Created", "Message"}, func() []table.Row {
				rows := make([]table.Row, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, table.Row{shortSha(e.CommitSha), deref(e.ChangeID), e.ChangeType, e.Author, e.CreatedAt, truncate(e.Message, 50)})
				}
				return rows
			})
		},
	}
	historyCmd.Flags().StringVar(&historyRef, "ref", "", "start from this ref")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum entries")

	cmd.AddCommand(treeCmd, catCmd, historyCmd)
	return cmd
}

func appendNodes(lw list.Writer, nodes []julsdk.FileNode) {
	for _, n := range nodes {
		label := n.Name
		switch {
		case n.Type == julsdk.FileTypeDirectory:
			label += "/"
		case n.Size != nil:
			label += " (" + strconv.Itoa(*n.Size) + " bytes)"
		}
		lw.AppendItem(label)
		if len(n.Children) > 0 {
			lw.Indent()
			appendNodes(lw, n.Children)
			lw.UnIndent()
		}
	}
}

func (c *cli) queryCmd() *cobra.Command {
	var params julsdk.QueryParams
	var tests string
	var compiles bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find commits by their CI results",
		Example: `  jul query --tests pass --coverage-min 80
  jul query --compiles=false --author alice --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			params.Tests = julsdk.SignalStatus(tests)
			if cmd.Flags().Changed("compiles") {
				params.Compiles = &compiles
			}
			commits, err := c.client().Query(cmd.Context(), repo, params)
			if err != nil {
				return err
			}
			return c.print(commits, table.Row{"Commit", "Change", "Author", "Created", "Message"}, func() []table.Row {
				rows := make([]table.Row, 0, len(commits))
				for _, cm := range commits {
					rows = append(rows, table.Row{shortSha(cm.Sha), deref(cm.ChangeID), cm.Author, cm.CreatedAt, truncate(cm.Message, 50)})
				}
				return rows
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&tests, "tests", "", "test signal: pass or fail")
	flags.BoolVar(&compiles, "compiles", false, "only commits that compile (or, with =false, that do not)")
	flags.Float64Var(&params.CoverageMin, "coverage-min", 0, "minimum line coverage percent")
	flags.Float64Var(&params.CoverageMax, "coverage-max", 0, "maximum line coverage percent")
	flags.StringVar(&params.ChangeID, "change", "", "filter by change id")
	flags.StringVar(&params.Author, "author", "", "filter by author")
	flags.StringVar(&params.Since, "since", "", "created after (RFC 3339)")
	flags.StringVar(&params.Until, "until", "", "created before (RFC 3339)")
	flags.IntVar(&params.Limit, "limit", 0, "maximum results")
	return cmd
}
