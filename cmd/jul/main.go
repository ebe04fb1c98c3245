package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"julclient/internal/app"
	"julclient/internal/config"
	"julclient/internal/logging"
	julsdk "julclient/sdk/go"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cli carries the state shared by every command of one invocation.
type cli struct {
	v        *viper.Viper
	out      io.Writer
	errOut   io.Writer
	cfg      *config.Config
	settings app.Settings
	logger   *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out, errOut: errOut}
	rootCmd := &cobra.Command{
		Use:   "jul",
		Short: "Jul API client",
		Long: `jul talks to a Jul server: repositories, workspaces, changes, CI
attestations, agent suggestions, files and the live event stream.

Settings are read from jul.yml in the workspace directory and can be
overridden with JUL_* environment variables and flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.preRun,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	c.addPersistentFlags(rootCmd)

	rootCmd.AddCommand(c.repoCmd())
	rootCmd.AddCommand(c.workspaceCmd())
	rootCmd.AddCommand(c.changeCmd())
	rootCmd.AddCommand(c.commitCmd())
	rootCmd.AddCommand(c.attestationCmd())
	rootCmd.AddCommand(c.ciCmd())
	rootCmd.AddCommand(c.suggestionCmd())
	rootCmd.AddCommand(c.fileCmd())
	rootCmd.AddCommand(c.queryCmd())
	rootCmd.AddCommand(c.eventsCmd())
	rootCmd.AddCommand(c.authCmd())
	rootCmd.AddCommand(c.configCmd())
	rootCmd.AddCommand(c.apiCmd())
	return rootCmd
}

func (c *cli) addPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory holding jul.yml and .jul/")
	flags.String("base-url", "", "Jul server URL")
	flags.String("token", "", "bearer token")
	flags.StringP("repo", "r", "", "repository name")
	flags.Bool("json", false, "output JSON")
	flags.StringP("output", "o", "table", "output format: table, json or yaml")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.Float64("rate", 0, "maximum requests per second (0 disables limiting)")
	for _, name := range []string{"workspace", "base-url", "token", "repo", "json", "output", "log-level", "log-format", "rate"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	c.v.SetEnvPrefix("JUL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
}

// preRun loads jul.yml and layers it under env and flags.
func (c *cli) preRun(cmd *cobra.Command, args []string) error {
	workspace := c.v.GetString("workspace")
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.v.SetDefault("base-url", cfg.Server.BaseURL)
	c.v.SetDefault("token", cfg.Server.Token)
	c.v.SetDefault("repo", cfg.Repo)
	c.v.SetDefault("rate", cfg.RateLimit.PerSecond)
	c.v.SetDefault("log-level", cfg.Log.Level)
	c.v.SetDefault("log-format", cfg.Log.Format)

	if err := logging.Configure(c.v.GetString("log-format"), c.v.GetString("log-level"), cfg.Log.Output); err != nil {
		return err
	}
	c.logger = logging.Default()

	c.settings = app.Settings{
		Workspace:     workspace,
		BaseURL:       c.v.GetString("base-url"),
		Token:         c.v.GetString("token"),
		Repo:          c.v.GetString("repo"),
		RatePerSecond: c.v.GetFloat64("rate"),
		RateBurst:     cfg.RateLimit.Burst,
		Logger:        c.logger,
	}
	c.logger.Debug("resolved settings", "workspace", workspace, "base_url", c.settings.BaseURL,
		"repo", c.settings.Repo, "token", logging.Secret(c.settings.Token))
	cmd.SetContext(logging.With(cmd.Context(), c.logger))
	return nil
}

func (c *cli) client() *julsdk.Client {
	return app.NewClient(c.settings)
}

func (c *cli) repo() (string, error) {
	return c.settings.ResolveRepo("")
}

// printError writes err for a human. API errors show the status, kind and
// any policy violations.
func printError(w io.Writer, err error) {
	if apiErr, ok := julsdk.AsAPIError(err); ok {
		fmt.Fprintf(w, "error: %d %s: %s\n", apiErr.StatusCode, apiErr.Kind(), apiErr.Body.Message)
		for _, v := range apiErr.Violations() {
			fmt.Fprintf(w, "  - %s [%s] %s\n", v.Check, v.Status, v.Message)
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "error: interrupted")
		return
	}
	fmt.Fprintln(w, "error:", err)
}
