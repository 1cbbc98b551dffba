package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/coderefine/internal/bootstrap"
	"github.com/bryanwahyu/coderefine/internal/domain/review"
	"github.com/bryanwahyu/coderefine/internal/infra/report"
)

var extensions = map[string]review.Language{
	".py":   review.LanguagePython,
	".js":   review.LanguageJavaScript,
	".mjs":  review.LanguageJavaScript,
	".cjs":  review.LanguageJavaScript,
	".jsx":  review.LanguageJavaScript,
	".ts":   review.LanguageTypeScript,
	".tsx":  review.LanguageTypeScript,
	".java": review.LanguageJava,
	".cpp":  review.LanguageCPP,
	".cc":   review.LanguageCPP,
	".cxx":  review.LanguageCPP,
	".hpp":  review.LanguageCPP,
	".h":    review.LanguageCPP,
	".html": review.LanguageHTML,
	".htm":  review.LanguageHTML,
	".css":  review.LanguageCSS,
}

type analyzeOptions struct {
	language string
	mode     string
	strategy string
	format   string
	apiKey   string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file|->",
		Short: "Analyze one source file, or stdin when the argument is -",
		Example: `  refine analyze main.py
  cat app.js | refine analyze - --lang javascript --format sarif
  refine analyze Service.java --mode fix --strategy local`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "source language (default: from the file extension)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "review or fix (default: analysis.default_mode)")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "local, model or auto (default: analysis.strategy)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json or sarif")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("CODEREFINE_API_KEY"), "key for the alternate model backend")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions, path string) error {
	switch opts.format {
	case "text", "json", "sarif":
	default:
		return fmt.Errorf("unknown format %q (want text, json or sarif)", opts.format)
	}

	code, err := readSource(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	lang, err := detectLanguage(opts.language, path)
	if err != nil {
		return err
	}

	cfg := root.cfg
	if opts.strategy != "" {
		cfg.Analysis.Strategy = opts.strategy
	}
	mode := opts.mode
	if mode == "" {
		mode = cfg.Analysis.DefaultMode
	}

	svc, err := bootstrap.ReviewService(cfg, bootstrap.ModelService(cfg))
	if err != nil {
		return err
	}
	res, err := svc.Analyze(cmd.Context(), review.Request{
		Language:   string(lang),
		Code:       code,
		Credential: opts.apiKey,
		Mode:       review.Mode(mode),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", review.UserMessage(err), err)
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case "json":
		return report.WriteJSON(out, res)
	case "sarif":
		uri := path
		if path == "-" {
			uri = "stdin"
		}
		return report.WriteSARIF(out, filepath.ToSlash(uri), res)
	default:
		return report.WriteText(out, res)
	}
}

func readSource(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func detectLanguage(flag, path string) (review.Language, error) {
	if flag != "" {
		return review.ParseLanguage(flag), nil
	}
	if lang, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("cannot infer the language of %q, pass --lang", path)
}
