package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/coderefine/internal/config"
	"github.com/bryanwahyu/coderefine/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:                   "refine [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Review source code with a language model or offline rules.",
		Long: `refine reviews a source file and reports bugs, performance notes, security
findings and best-practice comments, together with a rewritten version and
rough time and space complexity estimates.

Without a configured model backend the offline rule set is used.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			cfg.Logging.Output = "stderr"
			if !opts.verbose {
				cfg.Logging.Level = "warn"
			}
			logging.InitLogger(cfg.Logging)
			logrus.SetOutput(stderr)
			opts.cfg = cfg
			return nil
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.Path(), "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	cmd.AddCommand(newAnalyzeCmd(opts), newLanguagesCmd(), newVersionCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
