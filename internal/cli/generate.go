package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/restforge/spec2client/internal/emitter/tsemitter"
	genspec "github.com/restforge/spec2client/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	Out         string
	Format      string // typescript|javascript
	Client      string // axios|fetch
	PackageName string
	APIKeyEnv   string
	Examples    bool
	Tests       bool
	ConfigPath  string
	DryRun      bool
	Force       bool
	Verbose     bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Format:    tsemitter.FormatTypeScript,
		Client:    tsemitter.ClientAxios,
		APIKeyEnv: tsemitter.DefaultAPIKeyEnv,
		Examples:  true,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an API client from an OpenAPI/Swagger document",
		Long: "Generate a TypeScript or JavaScript API client from an OpenAPI/Swagger document. " +
			"When the input is missing or unreachable, a minimal placeholder client is generated instead of failing.",
		Example: strings.TrimSpace(`  spec2client generate --input spec.yaml --out ./client
  spec2client generate --input https://api.example.com --client fetch --format javascript
  spec2client --config spec2client.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document (optional)")
	flags.String("out", "", "Output directory (derived from the spec title when omitted)")
	flags.String("format", "", "Output format (typescript|javascript); defaults to typescript")
	flags.String("client", "", "HTTP transport for generated methods (axios|fetch); defaults to axios")
	flags.String("package-name", "", "Override the generated package name")
	flags.String("api-key-env", "", "Environment variable referenced for the API key in examples and docs")
	flags.Bool("examples", true, "Emit a usage-example script")
	flags.Bool("tests", false, "Emit test scaffolding in the generated project")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	stringFlags := map[string]*string{
		"input":        &cfg.Input,
		"out":          &cfg.Out,
		"format":       &cfg.Format,
		"client":       &cfg.Client,
		"package-name": &cfg.PackageName,
		"api-key-env":  &cfg.APIKeyEnv,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}
	boolFlags := map[string]*bool{
		"examples": &cfg.Examples,
		"tests":    &cfg.Tests,
		"dry-run":  &cfg.DryRun,
		"force":    &cfg.Force,
		"verbose":  &cfg.Verbose,
	}
	for name, dst := range boolFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Client = strings.ToLower(strings.TrimSpace(c.Client))
	c.PackageName = strings.TrimSpace(c.PackageName)
	c.APIKeyEnv = strings.TrimSpace(c.APIKeyEnv)
}

func (c *GenerateConfig) validate() error {
	switch c.Format {
	case "":
		c.Format = tsemitter.FormatTypeScript
	case tsemitter.FormatTypeScript, tsemitter.FormatJavaScript:
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --format %q (allowed: typescript, javascript)", c.Format))
	}
	switch c.Client {
	case "":
		c.Client = tsemitter.ClientAxios
	case tsemitter.ClientAxios, tsemitter.ClientFetch:
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --client %q (allowed: axios, fetch)", c.Client))
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = tsemitter.DefaultAPIKeyEnv
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	logger := newLogger(cfg.Verbose)

	sp, err := resolveSpec(ctx, cfg, logger)
	if err != nil {
		return err
	}
	endpoints := genspec.Extract(sp)

	opts := tsemitter.Options{
		IncludeExamples: cfg.Examples,
		IncludeTests:    cfg.Tests,
		OutputFormat:    cfg.Format,
		ClientType:      cfg.Client,
		PackageName:     cfg.PackageName,
		APIKeyEnv:       cfg.APIKeyEnv,
	}
	set, err := tsemitter.Emit(ctx, sp, endpoints, opts)
	if err != nil {
		return fmt.Errorf("emit client: %w", err)
	}

	outDir := cfg.Out
	if outDir == "" {
		if cfg.PackageName != "" {
			outDir = cfg.PackageName
		} else {
			outDir = tsemitter.PackageName(sp.Title)
		}
	}
	absOut := outDir
	if ap, err := filepath.Abs(outDir); err == nil {
		absOut = ap
	}

	res, err := tsemitter.Write(set, opts, tsemitter.WriteOptions{
		OutDir: outDir,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(absOut, paths)
	}
	return nil
}

// resolveSpec loads and normalizes the input document. URL inputs degrade
// through probing to a synthetic placeholder spec instead of failing; local
// file problems are surfaced as usage errors.
func resolveSpec(ctx context.Context, cfg *GenerateConfig, logger genspec.Logger) (*genspec.NormalizedSpec, error) {
	if cfg.Input == "" {
		logger.Warn("no input given; generating placeholder client")
		return genspec.Normalize(nil)
	}

	doc, err := genspec.Load(ctx, cfg.Input, genspec.WithLogger(logger))
	if err == nil {
		return genspec.Normalize(doc)
	}

	if !isHTTPURL(cfg.Input) {
		var se *genspec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			return nil, newUsageError(msg)
		}
		return nil, err
	}

	logger.Warn("direct load failed; probing discovery paths", "input", cfg.Input, "err", err)
	if res, perr := genspec.Probe(ctx, cfg.Input, genspec.WithLogger(logger)); perr == nil {
		var raw map[string]any
		if yerr := yaml.Unmarshal(res.Body, &raw); yerr == nil && raw != nil {
			if sp, nerr := genspec.Normalize(raw); nerr == nil {
				return sp, nil
			}
		}
	}
	logger.Warn("no usable spec found; generating placeholder client", "input", cfg.Input)
	return genspec.Normalize(nil)
}

func newLogger(verbose bool) genspec.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return genspec.NewSlogAdapter(slog.New(handler))
}

func isHTTPURL(input string) bool {
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func printPlan(outDir string, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common filesystem failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") ||
		strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") ||
		strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var ferr error
		switch normalizeKey(key) {
		case "input":
			cfg.Input, ferr = valueAsString(value)
		case "out":
			cfg.Out, ferr = valueAsString(value)
		case "format":
			cfg.Format, ferr = valueAsString(value)
		case "client":
			cfg.Client, ferr = valueAsString(value)
		case "packagename":
			cfg.PackageName, ferr = valueAsString(value)
		case "apikeyenv":
			cfg.APIKeyEnv, ferr = valueAsString(value)
		case "examples":
			cfg.Examples, ferr = valueAsBool(value)
		case "tests":
			cfg.Tests, ferr = valueAsBool(value)
		case "dryrun":
			cfg.DryRun, ferr = valueAsBool(value)
		case "force":
			cfg.Force, ferr = valueAsBool(value)
		case "verbose":
			cfg.Verbose, ferr = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if ferr != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, ferr))
		}
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
