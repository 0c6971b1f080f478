package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultConfigFileName = "spec2client.yaml"

const sampleConfigYAML = `# spec2client configuration.
# Every field is optional; CLI flags override values set here.

# Path or URL to the Swagger/OpenAPI document. When omitted or unreachable,
# a minimal placeholder client is generated.
input: ""

# Output directory. Derived from the spec title when empty.
out: ""

# Output format: typescript or javascript.
format: typescript

# HTTP transport used by the generated client: axios or fetch.
client: axios

# Override the package name in the generated package.json.
packageName: ""

# Environment variable referenced for the API key in examples and docs.
apiKeyEnv: API_KEY

# Emit a usage-example script.
examples: true

# Emit test scaffolding (jest config and scripts).
tests: false
`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter spec2client.yaml config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return runInit(strings.TrimSpace(out), force)
		},
	}

	cmd.Flags().String("out", defaultConfigFileName, "Where to write the starter config")
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(out string, force bool) error {
	if out == "" {
		out = defaultConfigFileName
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if _, err := os.Stat(abs); err == nil && !force {
		return newUsageError(fmt.Sprintf("config file %q already exists (use --force to overwrite)", abs))
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := abs + ".tmp-" + time.Now().Format("20060102150405")
	if err := os.WriteFile(tmp, []byte(sampleConfigYAML), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", abs)
	return nil
}
