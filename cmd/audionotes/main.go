package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hiroq/audionotes/internal/bootstrap"
	httptransport "github.com/hiroq/audionotes/internal/transport/http"
	"go.uber.org/zap"
)

// ビルド時変数（-ldflags で変更可能）
var version = "dev"

// Options はserveコマンドのCLI引数オプション
type Options struct {
	Host       string
	Port       int
	ConfigPath string
}

func main() {
	var err error

	// 引数なしの場合はserveをデフォルト実行
	if len(os.Args) < 2 {
		err = run([]string{})
	} else {
		switch os.Args[1] {
		case "serve":
			err = run(os.Args[1:])
		case "add":
			err = runAddCmd(os.Args[2:])
		case "search":
			err = runSearchCmd(os.Args[2:])
		case "version", "-v", "--version":
			printVersion()
			return
		case "help", "-h", "--help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// printUsage prints the usage information
func printUsage() {
	fmt.Println(`audionotes - Voice Note Server

Usage:
  audionotes <command> [options]

Commands:
  serve     Start the HTTP server (web UI + JSON API)
  add       Add a text note (oneshot command)
  search    List or search notes (oneshot command)
  version   Print version information
  help      Print this help message

Serve Options:
  --host string            HTTP host (default: 127.0.0.1)
  -p, --port int           HTTP port (default: 8765)
  -c, --config string      Config file path

Add Options:
  -c, --config string      Config file path
  --stdin                  Read note text from stdin

Search Options:
  -f, --format string      Output format: text, json (default: text)
  -c, --config string      Config file path

Examples:
  audionotes serve
  audionotes serve -p 8080
  audionotes add "buy cat food"
  echo "buy cat food" | audionotes add --stdin
  audionotes search                      # list up to 10 notes
  audionotes search "pet supplies"       # ranked similarity search`)
}

// printVersion prints the version information
func printVersion() {
	fmt.Printf("audionotes version %s\n", version)
}

// run は実際の処理を行う（テスト容易性のため分離）
func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandler()
	defer cancel()

	return runServe(ctx, opts)
}

// parseFlags は引数をパースしてOptionsを返す
func parseFlags(args []string) (*Options, error) {
	fs := flag.NewFlagSet("audionotes", flag.ContinueOnError)

	opts := &Options{}
	fs.StringVar(&opts.Host, "host", "", "HTTP host")
	fs.IntVar(&opts.Port, "port", 0, "HTTP port")
	fs.IntVar(&opts.Port, "p", 0, "HTTP port (shorthand)")
	fs.StringVar(&opts.ConfigPath, "config", "", "Config file path")
	fs.StringVar(&opts.ConfigPath, "c", "", "Config file path (shorthand)")

	// serveサブコマンド確認（引数なしまたは"serve"で始まる場合のみ許可）
	var flagArgs []string
	if len(args) == 0 {
		// 引数なし: デフォルトでserve
		flagArgs = []string{}
	} else if args[0] == "serve" {
		flagArgs = args[1:]
	} else {
		return nil, fmt.Errorf("usage: audionotes serve [options]")
	}

	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}

	if opts.Port < 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d (must be 1-65535)", opts.Port)
	}

	return opts, nil
}

// setupSignalHandler はSIGINT/SIGTERMを受けてcontextをキャンセルする
func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// runServe はserveコマンドを実行
func runServe(ctx context.Context, opts *Options) error {
	services, cleanup, err := bootstrap.Initialize(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer cleanup()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	// CLIフラグは設定ファイルより優先
	host := services.Config.Server.Host
	if opts.Host != "" {
		host = opts.Host
	}
	port := services.Config.Server.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	httpConfig := httptransport.Config{
		Addr: fmt.Sprintf("%s:%d", host, port),
	}
	server := httptransport.New(services.NoteService, services.Transcriber, logger, httpConfig)
	return server.Run(ctx)
}
