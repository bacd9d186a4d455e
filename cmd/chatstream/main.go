// ABOUTME: CLI entry point for chatstream
// ABOUTME: Parses flags, loads config, wires logging and NATS fan-out, dispatches to live or replay mode

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/mauromedda/chatstream/internal/config"
	"github.com/mauromedda/chatstream/internal/fanout"
	"github.com/mauromedda/chatstream/internal/log"
	"github.com/mauromedda/chatstream/internal/mode/print"
	"github.com/mauromedda/chatstream/pkg/ai"
	_ "github.com/mauromedda/chatstream/pkg/ai/provider/anthropic"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run performs the initialization sequence and dispatches to the selected mode.
func run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	args, err := parseFlags(argv, stderr)
	if err != nil {
		return err
	}
	if args.help {
		return nil
	}
	if args.version {
		fmt.Fprintf(stdout, "chatstream %s (%s) built %s\n", version, commit, date)
		return nil
	}

	cfg, err := loadSettings(args.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyOverrides(cfg, args)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if args.verbose {
		level = log.LevelDebug
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	pcfg := print.Config{OutputFormat: args.format, Out: stdout, Diag: stderr}
	if args.format == "pretty" {
		pcfg.Markdown, pcfg.Width = terminalInfo(stdout)
	}

	if cfg.NATS.URL != "" {
		pub, err := fanout.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer pub.Close()
		pcfg.Publisher = pub
	}

	if len(args.replay) > 0 {
		return print.Replay(ctx, pcfg, args.replay)
	}

	if cfg.APIKey == "" {
		return errors.New("no API key: set ANTHROPIC_API_KEY or api_key in the config file")
	}
	prompt, err := resolvePrompt(args, stdin)
	if err != nil {
		return err
	}

	provider := ai.GetProvider(ai.ApiAnthropic, ai.ProviderConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Headers: cfg.Headers,
	})
	if provider == nil {
		return fmt.Errorf("provider %q not registered", ai.ApiAnthropic)
	}

	req := &ai.Request{
		Model:    cfg.Model,
		System:   cfg.System,
		Messages: []ai.Message{ai.NewTextMessage(ai.RoleUser, prompt)},
	}
	opts := &ai.StreamOptions{
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		ThinkingBudget: cfg.ThinkingBudget,
	}
	return print.Run(ctx, pcfg, provider, req, opts)
}

// loadSettings reads an explicit settings file, or the global and project
// files for the working directory.
func loadSettings(path string) (*config.Settings, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return config.LoadFiles("", path, nil)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return config.Load(cwd)
}

// applyOverrides lets explicit flags win over file and environment settings.
func applyOverrides(cfg *config.Settings, args cliArgs) {
	if args.model != "" {
		cfg.Model = args.model
	}
	if args.system != "" {
		cfg.System = args.system
	}
	if args.baseURL != "" {
		cfg.BaseURL = args.baseURL
	}
	if args.maxTokens > 0 {
		cfg.MaxTokens = args.maxTokens
	}
	if args.thinkingBudget > 0 {
		cfg.ThinkingBudget = args.thinkingBudget
	}
	if args.natsURL != "" {
		cfg.NATS.URL = args.natsURL
	}
}

func resolvePrompt(args cliArgs, stdin io.Reader) (string, error) {
	prompt := args.prompt
	if prompt == "" {
		prompt = strings.Join(args.rest, " ")
	}
	if prompt == "" && stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("empty prompt")
	}
	return prompt, nil
}

// terminalInfo reports whether w is a terminal and its width in cells.
func terminalInfo(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return true, 0
	}
	return true, width
}
