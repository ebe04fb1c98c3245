package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"julclient/internal/auth"
	"julclient/internal/config"
	julsdk "julclient/sdk/go"
)

func (c *cli) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect credentials",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the configured token claims",
		Long: `Show the subject, scopes and expiry of the configured token.

The signature is not verified; only the server can do that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := c.settings.Token
			if token == "" {
				fmt.Fprintln(c.out, "Not authenticated: no token configured")
				return nil
			}
			st, err := auth.Inspect(token, time.Now())
			if errors.Is(err, auth.ErrNotJWT) {
				fmt.Fprintln(c.out, "Token: opaque (not a JWT)")
				return nil
			}
			if err != nil {
				return err
			}
			expires := "never"
			if st.ExpiresAt != nil {
				expires = st.ExpiresAt.UTC().Format(time.RFC3339)
				if st.Expired {
					expires += " (expired)"
				}
			}
			issued := ""
			if st.IssuedAt != nil {
				issued = st.IssuedAt.UTC().Format(time.RFC3339)
			}
			return c.printFields(st, [][2]string{
				{"Subject", st.Subject},
				{"Issuer", st.Issuer},
				{"Scopes", strings.Join(st.Scopes, " ")},
				{"Issued", issued},
				{"Expires", expires},
			})
		},
	}

	cmd.AddCommand(statusCmd)
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jul.yml",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default jul.yml into the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(c.settings.Workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return goerr.New("config already exists; use --force to overwrite", goerr.V("path", path))
			}
			if err := os.MkdirAll(c.settings.Workspace, 0o755); err != nil {
				return goerr.Wrap(err, "failed to create workspace", goerr.V("path", c.settings.Workspace))
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return goerr.Wrap(err, "failed to write config", goerr.V("path", path))
			}
			fmt.Fprintf(c.out, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing jul.yml")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after jul.yml, JUL_* environment variables and
flags have been merged. The token is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			effective := *c.cfg
			effective.Server.BaseURL = c.client().BaseURL()
			effective.Server.Token = ""
			if c.settings.Token != "" {
				effective.Server.Token = "********"
			}
			effective.Repo = c.settings.Repo
			effective.RateLimit.PerSecond = c.settings.RatePerSecond
			effective.Log.Level = c.v.GetString("log-level")
			effective.Log.Format = c.v.GetString("log-format")
			data, err := effective.Marshal()
			if err != nil {
				return err
			}
			_, err = c.out.Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (c *cli) apiCmd() *cobra.Command {
	var data string
	var raw bool
	cmd := &cobra.Command{
		Use:   "api <method> <path>",
		Short: "Send a raw request to the API",
		Example: `  jul api GET /api/v1/repos
  jul api POST /demo.jul/api/v1/ci/trigger --data '{"commit_sha":"abc123"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[1]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			req := julsdk.Request{
				Method: strings.ToUpper(args[0]),
				Path:   path,
			}
			if data != "" {
				var body any
				if err := json.Unmarshal([]byte(data), &body); err != nil {
					return goerr.Wrap(err, "--data is not valid JSON")
				}
				req.Body = body
			}
			if raw {
				req.Expect = julsdk.ResponseText
			}
			res, err := c.client().Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			if s, ok := res.(string); ok {
				fmt.Fprint(c.out, s)
				if s != "" && !strings.HasSuffix(s, "\n") {
					fmt.Fprintln(c.out)
				}
				return nil
			}
			return printJSON(c.out, res)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the response body without decoding it")
	return cmd
}
