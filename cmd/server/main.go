package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/shinyes/pastpaper/internal/app"
	"github.com/shinyes/pastpaper/internal/config"
	"github.com/shinyes/pastpaper/internal/logging"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		runServe(nil)
		return
	}

	switch args[0] {
	case "serve":
		runServe(args[1:])
	case "admin":
		if err := runAdmin(args[1:]); err != nil {
			logrus.Fatal(err)
		}
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		printUsage(os.Stdout)
		os.Exit(2)
	}
}

func runServe(args []string) {
	serveFlagSet := flag.NewFlagSet("serve", flag.ContinueOnError)
	serveFlagSet.SetOutput(io.Discard)
	consoleMode := serveFlagSet.Bool("console", false, "enable runtime admin console")
	if err := serveFlagSet.Parse(args); err != nil {
		logrus.Fatalf("parse serve args: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("build app")
	}
	defer cleanup() //nolint:errcheck

	logger.WithFields(logrus.Fields{
		"addr":    cfg.Addr,
		"storage": cfg.ExportStorage,
		"sync":    container.Syncer != nil,
	}).Info("pastpaper backend listening")
	if cfg.BootstrapToken != "" {
		logger.WithField("user", cfg.BootstrapUser).Info("bootstrap token enabled")
	}

	if container.Syncer != nil {
		if cfg.SyncOnStart {
			go func() {
				_, _ = container.Syncer.Run(ctx)
			}()
		}
		if cfg.SyncInterval > 0 {
			go container.Syncer.Loop(ctx, cfg.SyncInterval)
		}
	}
	if *consoleMode {
		logger.Info("runtime admin console enabled")
		go runRuntimeConsole(ctx, &adminCLI{container: container, out: os.Stdout})
	}

	go func() {
		<-ctx.Done()
		_ = container.Router.Shutdown()
	}()
	if err := container.Router.Listen(cfg.Addr); err != nil {
		logger.WithError(err).Fatal("listen")
	}
}

func runAdmin(args []string) error {
	if len(args) == 0 {
		printUsage(os.Stdout)
		return fmt.Errorf("invalid admin command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	container, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer cleanup() //nolint:errcheck

	cli := &adminCLI{container: container, out: os.Stdout}
	return cli.execute(ctx, args)
}

func runRuntimeConsole(ctx context.Context, cli *adminCLI) {
	fmt.Fprintln(cli.out, "Runtime Console: type a command, e.g. sync or user create demo demo-pass")
	fmt.Fprintln(cli.out, "Runtime Console: type help for commands, exit to close the console (the server keeps running)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(cli.out, "pastpaper> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Fprintf(cli.out, "console read error: %v\n", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parsed, err := parseCommandLine(line)
		if err != nil {
			fmt.Fprintf(cli.out, "parse command error: %v\n", err)
			continue
		}
		if len(parsed) == 0 {
			continue
		}

		switch strings.ToLower(parsed[0]) {
		case "help":
			printRuntimeConsoleUsage(cli.out)
			continue
		case "exit", "quit":
			fmt.Fprintln(cli.out, "runtime console closed")
			return
		case "admin":
			parsed = parsed[1:]
			if len(parsed) == 0 {
				printRuntimeConsoleUsage(cli.out)
				continue
			}
		}

		if err := cli.execute(ctx, parsed); err != nil {
			fmt.Fprintf(cli.out, "command failed: %v\n", err)
		}
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  go run ./cmd/server")
	fmt.Fprintln(w, "  go run ./cmd/server serve [--console]")
	fmt.Fprintln(w, "  go run ./cmd/server admin sync")
	fmt.Fprintln(w, "  go run ./cmd/server admin export <file|->")
	fmt.Fprintln(w, "  go run ./cmd/server admin import <file>")
	fmt.Fprintln(w, "  go run ./cmd/server admin snapshot <save|list|restore <key>|delete <key>>")
	fmt.Fprintln(w, "  go run ./cmd/server admin clear")
	fmt.Fprintln(w, "  go run ./cmd/server admin user create <username> <password> [display_name] [role]")
	fmt.Fprintln(w, "  go run ./cmd/server admin user password <username_or_id> <password>")
	fmt.Fprintln(w, "  go run ./cmd/server admin token create <username_or_id> [description] [--ttl 7d|24h] [--expires-at 2026-12-31T23:59:59Z]")
	fmt.Fprintln(w, "  go run ./cmd/server admin token list <username_or_id>")
	fmt.Fprintln(w, "  go run ./cmd/server admin token revoke <token_id>")
}

func printRuntimeConsoleUsage(w io.Writer) {
	fmt.Fprintln(w, "Runtime Console Commands:")
	fmt.Fprintln(w, "  sync")
	fmt.Fprintln(w, "  export <file|->")
	fmt.Fprintln(w, "  import <file>")
	fmt.Fprintln(w, "  snapshot save|list|restore <key>|delete <key>")
	fmt.Fprintln(w, "  clear")
	fmt.Fprintln(w, "  user create <username> <password> [display_name] [role]")
	fmt.Fprintln(w, "  user password <username_or_id> <password>")
	fmt.Fprintln(w, "  token create <username_or_id> [description] [--ttl 7d|24h] [--expires-at 2026-12-31T23:59:59Z]")
	fmt.Fprintln(w, "  token list <username_or_id>")
	fmt.Fprintln(w, "  token revoke <token_id>")
	fmt.Fprintln(w, "  help")
	fmt.Fprintln(w, "  exit")
}
