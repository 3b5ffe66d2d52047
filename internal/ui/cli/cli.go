package cli

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
)

var outputFormats = []string{"text", "tsv", "sarif", "none"}

type cliOptions struct {
	configPath   string
	policyPath   string
	language     string
	format       string
	envFile      string
	once         bool
	includeTests bool
	history      bool
	historyTSV   string
	historyJSON  string
	verbose      bool
	version      bool
	args         []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("nsguard", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./nsguard.toml when present)")
	fs.StringVar(&opts.policyPath, "policy", "", "Path to the policy file, overriding paths.policy_file")
	fs.StringVar(&opts.language, "lang", "", "Source language to analyze (go or java), overriding language")
	fs.StringVar(&opts.format, "format", "text", "Report printed to stdout: text, tsv, sarif or none")
	fs.StringVar(&opts.envFile, "env", ".env", "Environment file loaded before config overrides")
	fs.BoolVar(&opts.once, "once", false, "Run a single analysis and exit")
	fs.BoolVar(&opts.includeTests, "include-tests", false, "Include test sources in analysis")
	fs.BoolVar(&opts.history, "history", false, "Record run snapshots and print the violation trend")
	fs.StringVar(&opts.historyTSV, "history-tsv", "", "Write trend report TSV to this path (requires --history)")
	fs.StringVar(&opts.historyJSON, "history-json", "", "Write trend report JSON to this path (requires --history)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	return opts, nil
}

func validateOptions(opts cliOptions) error {
	if !slices.Contains(outputFormats, opts.format) {
		return fmt.Errorf("--format must be one of %s, got %q", strings.Join(outputFormats, ", "), opts.format)
	}
	if len(opts.args) > 1 {
		return fmt.Errorf("at most one project root argument is accepted, got %d", len(opts.args))
	}
	if (opts.historyTSV != "" || opts.historyJSON != "") && !opts.history {
		return fmt.Errorf("--history-tsv/--history-json require --history")
	}
	return nil
}
