package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/syopub"
	syofs "github.com/fwojciec/syopub/fs"
	"github.com/fwojciec/syopub/goquery"
	syootel "github.com/fwojciec/syopub/otel"
	"github.com/fwojciec/syopub/publish"
	"github.com/fwojciec/syopub/resty"
	syoslog "github.com/fwojciec/syopub/slog"
	"github.com/fwojciec/syopub/sqlite"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Getenv reads environment overrides. Set before calling Run().
	Getenv func(string) string

	// Now stamps receipts. Set before calling Run().
	Now func() time.Time

	// TracerProvider receives request and book spans. Nil means the
	// global provider, which is a no-op unless one is installed.
	TracerProvider trace.TracerProvider

	// SQLite ledger, opened for commands that need it.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Getenv: os.Getenv,
		Now:    time.Now,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("syopub"),
		kong.Description("Publish serialized novels to syosetu."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'syopub --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd = strings.Fields(kongCtx.Command())[0]

	if err := loadEnvFile(cli.Env); err != nil {
		return err
	}
	cfg, err := LoadConfig(cli.Config, m.Getenv)
	if err != nil {
		return err
	}
	deps.Config = cfg

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	source, err := syofs.NewBookSource(cfg.ChapterExt, cfg.Encoding)
	if err != nil {
		return err
	}
	deps.Source = source
	if cli.Verbose {
		deps.Source = syoslog.NewLoggingBookSource(source, logger)
	}

	defer m.Close()
	switch cmd {
	case "publish":
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "Hint: set cookie.ses and cookie.userl in %s or %s and %s\n", cli.Config, EnvSes, EnvUserl)
			return err
		}
		if err := m.wirePublish(deps, cli, logger); err != nil {
			return err
		}
	case "history":
		if err := m.openLedger(cfg); err != nil {
			return err
		}
		deps.Runs = sqlite.NewRunService(m.DB)
	}

	return kongCtx.Run(deps)
}

// wirePublish builds the session and orchestrator for the publish command.
func (m *Main) wirePublish(deps *Dependencies, cli *CLI, logger *slog.Logger) error {
	cfg := deps.Config

	var sessionLogger *slog.Logger
	if cli.Verbose {
		sessionLogger = logger
	}
	client, err := resty.NewSessionFromConfig(cfg, sessionLogger)
	if err != nil {
		return err
	}

	var session syopub.Session = syootel.NewTracingSession(client, m.TracerProvider)
	if cli.Verbose {
		session = syoslog.NewLoggingSession(session, logger)
	}

	publisher := publish.NewBookPublisher(session, goquery.NewScraper(), cfg)
	deps.Orchestrator = &publish.Orchestrator{
		Source:      deps.Source,
		Publisher:   syootel.NewTracingPublisher(publisher, m.TracerProvider),
		Concurrency: cfg.Concurrency,
	}
	if cli.Publish.Concurrency != 0 {
		deps.Orchestrator.Concurrency = cli.Publish.Concurrency
	}

	if cli.Publish.NoLedger {
		return nil
	}
	if err := m.openLedger(cfg); err != nil {
		// The ledger is informational; publishing goes ahead without it.
		fmt.Fprintf(deps.Stderr, "warning: ledger disabled: %v\n", err)
		return nil
	}
	var runs syopub.RunService = sqlite.NewRunService(m.DB)
	if cli.Verbose {
		runs = syoslog.NewLoggingRunService(runs, logger)
	}
	deps.Runs = runs
	deps.Orchestrator.Runs = runs
	return nil
}

func (m *Main) openLedger(cfg syopub.Config) error {
	path := ledgerPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return syopub.Errorf(syopub.ESTORAGE, "create ledger directory: %v", err)
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		m.DB = nil
		return fmt.Errorf("failed to open ledger at %q: %w", path, err)
	}
	return nil
}

// loadEnvFile loads KEY=value pairs from path into the process environment.
// Variables already set are kept. A missing file is ignored.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return syopub.Errorf(syopub.ECONFIG, "load %s: %v", path, err)
	}
	return nil
}
