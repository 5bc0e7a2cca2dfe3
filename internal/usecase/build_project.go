package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/cli"
	"github.com/3-lines-studio/entrykit/internal/config"
	"github.com/3-lines-studio/entrykit/internal/coordinator"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/evanw/esbuild/pkg/api"
)

type BuildInput struct {
	ConfigPath string
	Mode       core.Mode
	Timeout    time.Duration
}

type BuildOutput struct {
	Success bool
	Pages   []coordinator.Page
	Error   error
}

type BuildService struct {
	fs  FileSystem
	cli CLIOutput
}

func NewBuildService(fs FileSystem, cli CLIOutput) *BuildService {
	return &BuildService{
		fs:  fs,
		cli: cli,
	}
}

func (s *BuildService) BuildProject(ctx context.Context, input BuildInput) BuildOutput {
	s.cli.PrintHeader("entrykit build")
	logger := ctxlog.FromContext(ctx)

	model, err := config.Load(input.ConfigPath)
	if err != nil {
		return BuildOutput{Error: fmt.Errorf("failed to load config: %w", err)}
	}
	model.ApplyMode(input.Mode)

	p := newProject(model, input.Mode, input.Timeout, logger, s.fs)
	report := newReport(s.cli, p)

	logger.Info("bundling", "entries", len(model.Entries), "mode", input.Mode.String())
	result := api.Build(p.options)
	ok := collectMessages(report, p, result, logger)
	report.Render()

	last := p.coordinator.LastReport()
	if !ok {
		return BuildOutput{Error: buildError(result, last)}
	}
	return BuildOutput{Success: true, Pages: last.Pages}
}

func newReport(out CLIOutput, p *project) *cli.BuildReport {
	report := cli.NewBuildReport(out, p.options.Outdir)
	if w, ok := out.(interface{ Writers() (io.Writer, io.Writer) }); ok {
		stdout, stderr := w.Writers()
		report.SetOutput(stdout, stderr)
	}
	report.SetEntryCount(len(p.model.Entries))
	return report
}

// collectMessages moves the build's errors, warnings and pages into report.
// It reports whether the build succeeded.
func collectMessages(report *cli.BuildReport, p *project, result api.BuildResult, logger *slog.Logger) bool {
	for _, msg := range result.Warnings {
		report.AddWarning(p.entryFor(msg), msg.Text, messageDetails(msg))
	}
	for _, msg := range result.Errors {
		report.AddError(p.entryFor(msg), msg.Text, messageDetails(msg))
	}
	if len(result.Errors) > 0 {
		return false
	}

	for _, page := range p.coordinator.LastReport().Pages {
		rel, err := filepath.Rel(p.model.Dir, page.Path)
		if err != nil {
			rel = page.Path
		}
		report.AddPage(rel, len(page.HTML))
		logger.Debug("page written", "entry", page.Entry, "path", page.Path)
	}
	return true
}

func messageDetails(msg api.Message) []string {
	var details []string
	if loc := msg.Location; loc != nil && loc.File != "" {
		details = append(details, fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column))
	}
	if msg.PluginName != "" {
		details = append(details, "plugin "+msg.PluginName)
	}
	for _, note := range msg.Notes {
		details = append(details, note.Text)
	}
	return details
}

func buildError(result api.BuildResult, last coordinator.Report) error {
	if last.Err != nil {
		return last.Err
	}
	for _, msg := range result.Errors {
		if err, ok := msg.Detail.(error); ok {
			return err
		}
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("build failed: %s", result.Errors[0].Text)
	}
	return fmt.Errorf("build failed")
}
