// ABOUTME: CLI flag parsing using spf13/pflag
// ABOUTME: Supports --model, --prompt, --replay, --format, --nats-url, --thinking-budget, --version

package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

type cliArgs struct {
	configPath     string
	model          string
	prompt         string
	system         string
	baseURL        string
	replay         []string
	format         string
	natsURL        string
	maxTokens      int
	thinkingBudget int
	verbose        bool
	version        bool
	help           bool
	rest           []string
}

func newFlagSet(args *cliArgs) *pflag.FlagSet {
	fs := pflag.NewFlagSet("chatstream", pflag.ContinueOnError)
	fs.StringVarP(&args.configPath, "config", "c", "", "Settings file (default: ~/.chatstream/config.yaml merged with ./.chatstream/config.yaml)")
	fs.StringVarP(&args.model, "model", "m", "", "Model to use (e.g., claude-sonnet-4-20250514)")
	fs.StringVarP(&args.prompt, "prompt", "p", "", "Prompt text; read from remaining arguments or stdin when empty")
	fs.StringVar(&args.system, "system", "", "System prompt")
	fs.StringVar(&args.baseURL, "base-url", "", "Custom API base URL")
	fs.StringArrayVar(&args.replay, "replay", nil, "Replay a recorded SSE transcript instead of calling the API (repeatable)")
	fs.StringVarP(&args.format, "format", "f", "text", "Output format: text, json, stream-json, pretty")
	fs.StringVar(&args.natsURL, "nats-url", "", "Publish snapshots to this NATS server")
	fs.IntVar(&args.maxTokens, "max-tokens", 0, "Maximum output tokens")
	fs.IntVar(&args.thinkingBudget, "thinking-budget", 0, "Extended thinking token budget (0 disables)")
	fs.BoolVarP(&args.verbose, "verbose", "v", false, "Debug logging")
	fs.BoolVar(&args.version, "version", false, "Show version and exit")
	fs.BoolVarP(&args.help, "help", "h", false, "Show help")
	return fs
}

func parseFlags(argv []string, stderr io.Writer) (cliArgs, error) {
	var args cliArgs
	fs := newFlagSet(&args)
	fs.SetOutput(stderr)
	if err := fs.Parse(argv); err != nil {
		return cliArgs{}, err
	}
	if args.help {
		printHelp(fs, stderr)
	}
	if args.maxTokens < 0 || args.thinkingBudget < 0 {
		return cliArgs{}, fmt.Errorf("token limits must not be negative")
	}
	args.rest = fs.Args()
	return args, nil
}

func printHelp(fs *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `chatstream streams Anthropic Messages API responses as snapshots.

Usage:
  chatstream [flags] [prompt...]
  chatstream --replay run.sse [--replay other.sse] [flags]

Flags:
%s`, fs.FlagUsages())
}
