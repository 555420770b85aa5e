package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigName = "clapikit.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample clapikit configuration file",
		Long:  "Scaffold a commented clapikit configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), cmd.OutOrStdout(), &InitConfig{OutputPath: out, Force: force})
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(_ context.Context, w io.Writer, cfg *InitConfig) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := sampleConfig(filepath.Ext(absPath))
	sample := defaultConfig()
	if err := applyConfigData(&sample, absPath, []byte(content)); err != nil {
		return fmt.Errorf("init: sample config does not load: %w", err)
	}

	// temp file + rename so a failed write never leaves half a config
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(w, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfig returns the commented sample in the syntax matching ext.
func sampleConfig(ext string) string {
	if strings.EqualFold(ext, ".toml") {
		return strings.TrimSpace(sampleConfigTOML) + "\n"
	}
	return strings.TrimSpace(sampleConfigYAML) + "\n"
}

const sampleConfigYAML = `# clapikit configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or http(s) URL of the OpenAPI document.
# spec: ./openapi.yaml

# Replace the first server URL declared by the document.
# server: http://localhost:4010

# Response rendering: structured (pretty JSON) or raw.
output: structured

# Timeout for spec fetching and API calls, as a duration or seconds. 0 disables it.
# timeout: 30s

# Print informational output such as the server in use.
# debug: false

# Suppress all log output.
# silent: false

# Disable colored log output.
# noColor: false
`

const sampleConfigTOML = `# clapikit configuration (TOML)
# All fields are optional. Command-line flags override config values.

# spec = "./openapi.yaml"
# server = "http://localhost:4010"
output = "structured"
# timeout = "30s"
# debug = false
# silent = false
# noColor = false
`
