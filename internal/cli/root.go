package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Execute runs the clapikit CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clapikit [operation]",
		Short: "Call any operation of an OpenAPI document from the command line",
		Long: "clapikit reads an OpenAPI (or Swagger 2.0) document and exposes each of its " +
			"operations by id. Without an operation it lists what is available.",
		Example: strings.TrimSpace(`  clapikit --spec openapi.yaml
  clapikit --spec openapi.yaml listUsers --params '{"limit": 10}'
  clapikit --spec https://api.example.com/openapi.json --server http://localhost:4010 createUser --data '{"name": "Ada"}'`),
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return listRunner(cmd.Context(), cmd.OutOrStdout(), cfg)
			}
			cfg.Operation = strings.TrimSpace(args[0])
			return dispatchRunner(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(flagUsageError)

	pf := cmd.PersistentFlags()
	pf.StringP("spec", "s", "", "Path or http(s) URL of the OpenAPI document")
	pf.String("server", "", "Override the first server URL of the document")
	pf.BoolP("debug", "d", false, "Print informational output such as the server in use")
	pf.StringP("config", "c", "", "Config file path (YAML, JSON or TOML)")
	pf.Duration("timeout", 0, "Timeout for spec fetching and API calls (0 means none)")
	pf.Bool("silent", false, "Suppress all log output")
	pf.Bool("no-color", false, "Disable colored log output")

	addDispatchFlags(cmd.Flags())
	cmd.Flags().StringSlice("tag", nil, "Only list operations with these tags")

	for _, sub := range []*cobra.Command{newCallCmd(), newDescribeCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagUsageError)
		cmd.AddCommand(sub)
	}

	return cmd
}

func addDispatchFlags(flags *pflag.FlagSet) {
	flags.String("data", "", "JSON request body")
	flags.String("params", "", "JSON object of query parameters")
	flags.String("headers", "", "JSON object of request headers")
	flags.StringP("output", "o", "", "Output mode: structured or raw (default structured)")
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <operation>",
		Short: "Invoke an operation by id",
		Long:  "Invoke an operation by id. Same as passing the id to the root command, and also works for ids such as \"init\" or \"describe\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Operation = strings.TrimSpace(args[0])
			return dispatchRunner(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	addDispatchFlags(cmd.Flags())
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <operation>",
		Short: "Show the method, path, parameters and responses of an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Operation = strings.TrimSpace(args[0])
			return describeRunner(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}
