package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

func (c *cli) format() (outputFormat, error) {
	if c.v.GetBool("json") {
		return outputJSON, nil
	}
	switch strings.ToLower(c.v.GetString("output")) {
	case "table", "":
		return outputTable, nil
	case "json":
		return outputJSON, nil
	case "yaml":
		return outputYAML, nil
	default:
		return "", goerr.New("unsupported output format (supported: table, json, yaml)", goerr.V("value", c.v.GetString("output")))
	}
}

// print renders data as JSON or YAML, or as a table built by rows.
func (c *cli) print(data any, header table.Row, rows func() []table.Row) error {
	format, err := c.format()
	if err != nil {
		return err
	}
	switch format {
	case outputJSON:
		return printJSON(c.out, data)
	case outputYAML:
		return printYAML(c.out, data)
	default:
		printTable(c.out, header, rows())
		return nil
	}
}

// printFields renders a single entity as a two-column table.
func (c *cli) printFields(data any, fields [][2]string) error {
	return c.print(data, table.Row{"Field", "Value"}, func() []table.Row {
		rows := make([]table.Row, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, table.Row{f[0], f[1]})
		}
		return rows
	})
}

func printJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printYAML goes through JSON first so field names match the JSON output.
func printYAML(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

func printTable(w io.Writer, header table.Row, rows []table.Row) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func shortSha(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

// truncate shortens s to maxLen display columns, cutting on rune boundaries.
func truncate(s string, maxLen int) string {
	return text.Snip(s, maxLen, "...")
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
