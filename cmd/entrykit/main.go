package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/3-lines-studio/entrykit/internal/adapters/cli"
	"github.com/3-lines-studio/entrykit/internal/adapters/env"
	"github.com/3-lines-studio/entrykit/internal/adapters/fs"
	"github.com/3-lines-studio/entrykit/internal/config"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/3-lines-studio/entrykit/internal/usecase"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], cli.NewOutput(), os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, output *cli.Output, logW io.Writer) int {
	if len(args) == 0 {
		printUsage(output)
		return 2
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "build", "watch":
		err = runBuild(ctx, cmd, rest, output, logW)
	case "init":
		err = runInit(rest, output)
	case "help", "-h", "--help":
		printUsage(output)
		return 0
	default:
		output.PrintError("unknown command %q", cmd)
		printUsage(output)
		return 2
	}

	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		return 2
	}
	if err != nil {
		output.PrintError("%v", err)
		return 1
	}
	return 0
}

func runBuild(ctx context.Context, cmd string, args []string, output *cli.Output, logW io.Writer) error {
	flags := flag.NewFlagSet("entrykit "+cmd, flag.ContinueOnError)
	configPath := flags.String("config", config.DefaultFile, "path to the build config")
	envFile := flags.String("env-file", ".env", "dotenv file to load")
	logLevel := flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	logFormat := flags.String("log-format", "text", "log format (text, json)")
	noColor := flags.Bool("no-color", false, "disable colored output")
	_, errOut := output.Writers()
	flags.SetOutput(errOut)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *noColor {
		output.DisableColors()
	}

	if err := env.Load(*envFile); err != nil {
		return err
	}
	timeout, err := env.RenderTimeout()
	if err != nil {
		return err
	}

	logger := ctxlog.New(*logLevel, *logFormat, logW)
	slog.SetDefault(logger)
	ctx = ctxlog.WithLogger(ctx, logger)

	input := usecase.BuildInput{
		ConfigPath: *configPath,
		Mode:       env.DetectMode(),
		Timeout:    timeout,
	}
	fsys := fs.NewOSFileSystem()

	if cmd == "watch" {
		return usecase.NewWatchService(fsys, output).Watch(ctx, input)
	}

	result := usecase.NewBuildService(fsys, output).BuildProject(ctx, input)
	if result.Error != nil {
		return result.Error
	}
	output.PrintDone("Build completed successfully")
	return nil
}

func runInit(args []string, output *cli.Output) error {
	flags := flag.NewFlagSet("entrykit init", flag.ContinueOnError)
	_, errOut := output.Writers()
	flags.SetOutput(errOut)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		output.PrintError("init needs exactly one project directory")
		return errUsage
	}

	dir, err := filepath.Abs(flags.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}

	result := usecase.NewInitService(fs.NewOSFileSystem(), output).InitProject(usecase.InitInput{ProjectDir: dir})
	return result.Error
}

func printUsage(output *cli.Output) {
	output.PrintHeader("entrykit")
	output.PrintStep("Usage:")
	output.PrintStep("  entrykit build [--config entrykit.hcl] [--log-level warn] [--log-format text]")
	output.PrintStep("  entrykit watch [--config entrykit.hcl]")
	output.PrintStep("  entrykit init <project-dir>")
	output.PrintStep("")
	output.PrintStep("Environment:")
	output.PrintStep("  %s=production      minify and build for production", env.ModeVar)
	output.PrintStep("  %s=5s   sandbox execution limit", env.TimeoutVar)
}
