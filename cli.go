package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/config"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

const appName = config.AppName

const rootLong = `A CLI tool to download YouTube video transcripts (captions)

Arguments:
  URL                YouTube video URL or video ID`

const rootExample = `  youtube-transcript-downloader https://www.youtube.com/watch?v=dQw4w9WgXcQ
  youtube-transcript-downloader dQw4w9WgXcQ -o output.txt
  youtube-transcript-downloader https://youtu.be/dQw4w9WgXcQ -l ja -f srt
  youtube-transcript-downloader https://www.youtube.com/watch?v=dQw4w9WgXcQ --list-langs`

// usageTemplate is cobra's default with "Options:" in place of "Flags:".
const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Options:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Options:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`

// Usage errors keep the wording users of the tool already know.
var (
	errOutputRequired = errors.New("--output requires a filename")
	errLangRequired   = errors.New("--lang requires a language code")
	errFormatInvalid  = errors.New("--format must be one of: " + transcript.FormatNames())
	errURLRequired    = errors.New("a YouTube URL or video ID is required (see --help)")
)

// deps are the pieces a run builds; tests replace them.
type deps struct {
	newService func(cfg *config.Config) (*transcript.Service, error)
	isTerminal func(w io.Writer) bool
}

func defaultDeps() deps {
	return deps{newService: buildService, isTerminal: isTerminal}
}

// commandContext carries what PersistentPreRunE prepared for the subcommand.
type commandContext struct {
	deps       deps
	configPath string
	verbose    bool
	cfg        *config.Config
}

type rootOptions struct {
	output     string
	lang       string
	listLangs  bool
	format     string
	timestamps bool
	timeout    time.Duration
	retries    int
}

func newRootCommand(d deps) *cobra.Command {
	ctx := &commandContext{deps: d}
	opts := &rootOptions{}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:                   appName + " <URL> [options]",
		Short:                 "Download YouTube video transcripts",
		Long:                  appName + " v" + version + "\n\n" + rootLong,
		Example:               rootExample,
		Version:               version,
		Args:                  cobra.ArbitraryArgs,
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				setupLogger(cmd.ErrOrStderr(), slog.LevelWarn, ctx.verbose)
				return nil
			}
			cfg, _, _, err := config.Load(strings.TrimSpace(ctx.configPath))
			if err != nil {
				return err
			}
			ctx.cfg = cfg
			setupLogger(cmd.ErrOrStderr(), cfg.SlogLevel(), ctx.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, ctx, opts, args)
		},
	}
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetFlagErrorFunc(flagError)

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Output filename (default: <video-id>.<format>, - for stdout)")
	flags.StringVarP(&opts.lang, "lang", "l", "", "Language code (e.g., ja, en, ko)")
	flags.BoolVar(&opts.listLangs, "list-langs", false, "List available languages")
	flags.StringVarP(&opts.format, "format", "f", defaults.Defaults.Format, "Output format: "+transcript.FormatNames())
	flags.BoolVarP(&opts.timestamps, "timestamps", "t", false, "Include timestamps (for txt format)")
	flags.DurationVar(&opts.timeout, "timeout", defaults.Timeout(), "Deadline for the whole download, 0 to disable")
	flags.IntVar(&opts.retries, "retries", defaults.Network.Retries, "Retries for transient network failures")

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&ctx.verbose, "verbose", false, "Log debug output to stderr")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}

func runRoot(cmd *cobra.Command, cc *commandContext, opts *rootOptions, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("output") && strings.TrimSpace(opts.output) == "" {
		return errOutputRequired
	}
	if flags.Changed("lang") && strings.TrimSpace(opts.lang) == "" {
		return errLangRequired
	}
	if len(args) == 0 {
		return errURLRequired
	}
	cfg := cc.cfg

	formatName := cfg.Defaults.Format
	if flags.Changed("format") {
		formatName = opts.format
	}
	format, err := transcript.ParseFormat(formatName)
	if err != nil {
		return errFormatInvalid
	}
	lang := cfg.Defaults.Language
	if flags.Changed("lang") {
		lang = strings.TrimSpace(opts.lang)
	}
	timestamps := cfg.Defaults.Timestamps || opts.timestamps
	timeout := cfg.Timeout()
	if flags.Changed("timeout") {
		timeout = opts.timeout
	}
	retries := cfg.Network.Retries
	if flags.Changed("retries") {
		retries = opts.retries
	}
	if retries < 0 {
		return errors.New("--retries must not be negative")
	}

	svc, err := cc.deps.newService(cfg)
	if err != nil {
		return err
	}

	runCtx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	retry := engine.DefaultRetryConfig
	retry.MaxRetries = retries

	if opts.listLangs {
		listing, err := engine.RetryDo(runCtx, retry, func() (*transcript.Listing, error) {
			return svc.Languages(runCtx, args[0], lang)
		})
		if err != nil {
			return err
		}
		printListing(cmd.OutOrStdout(), listing, cc.deps.isTerminal(cmd.OutOrStdout()))
		return nil
	}

	res, err := engine.RetryDo(runCtx, retry, func() (*transcript.Result, error) {
		return svc.Download(runCtx, transcript.Request{
			Input:      args[0],
			Language:   lang,
			Format:     format,
			Timestamps: timestamps,
		})
	})
	if err != nil {
		return err
	}
	_, err = writeResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, opts.output, cfg.Defaults.OutputDir)
	return err
}

// flagError maps pflag parse errors onto the tool's usage messages.
func flagError(_ *cobra.Command, err error) error {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "unknown flag: "):
		return fmt.Errorf("Unknown option: %s", strings.TrimPrefix(msg, "unknown flag: ")) //nolint:stylecheck
	case strings.HasPrefix(msg, "unknown shorthand flag: "):
		if i := strings.LastIndex(msg, " in "); i >= 0 {
			return fmt.Errorf("Unknown option: %s", msg[i+len(" in "):]) //nolint:stylecheck
		}
	case strings.HasPrefix(msg, "flag needs an argument: "):
		arg := strings.TrimPrefix(msg, "flag needs an argument: ")
		switch {
		case arg == "--output" || strings.HasPrefix(arg, "'o'"):
			return errOutputRequired
		case arg == "--lang" || strings.HasPrefix(arg, "'l'"):
			return errLangRequired
		case arg == "--format" || strings.HasPrefix(arg, "'f'"):
			return errFormatInvalid
		}
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// setupLogger installs a text handler on w tagged with a per-run id.
func setupLogger(w io.Writer, level slog.Level, verbose bool) {
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).
		With(slog.String("run", uuid.NewString()))
	slog.SetDefault(logger)
}

// buildService wires the engine transport and the YouTube source from cfg.
func buildService(cfg *config.Config) (*transcript.Service, error) {
	ec := engine.Config{
		RequestsPerSecond: cfg.Network.RequestsPerSecond,
		UserAgent:         cfg.Network.UserAgent,
		Language:          cfg.Network.HL,
	}
	if cfg.Network.Stealth {
		bc, err := engine.NewBrowserClient(int(engine.DefaultFetchTimeout/time.Second), cfg.Network.WebshareAPIKey)
		if err != nil {
			slog.Warn("stealth client init failed, using net/http", slog.Any("error", err))
		} else {
			ec.BrowserClient = bc
			slog.Debug("stealth browser client initialized")
		}
	}
	engine.Init(ec)

	mode, err := sources.ParseClientMode(cfg.Network.Client)
	if err != nil {
		return nil, err
	}
	yt := sources.NewYouTube(engine.NewClient(*engine.Cfg),
		sources.WithClientMode(mode),
		sources.WithInterfaceLanguage(engine.Cfg.Language),
	)
	return transcript.NewService(yt, yt), nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
