package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/3-lines-studio/entrykit/internal/config"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/bep/debounce"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/fsnotify/fsnotify"
)

const ConfigDebounce = 200 * time.Millisecond

type WatchService struct {
	fs       FileSystem
	cli      CLIOutput
	debounce time.Duration
}

func NewWatchService(fs FileSystem, cli CLIOutput) *WatchService {
	return &WatchService{fs: fs, cli: cli, debounce: ConfigDebounce}
}

// Watch rebuilds on every source change until ctx is done. Edits to the
// config file dispose the running build and start a new one. Files only
// component templates import are invisible to esbuild, so they are
// watched here and trigger a rebuild.
func (s *WatchService) Watch(ctx context.Context, input BuildInput) error {
	s.cli.PrintHeader("entrykit watch")
	logger := ctxlog.FromContext(ctx)

	configPath, err := filepath.Abs(input.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", configPath, err)
	}
	watchedDirs := map[string]bool{filepath.Dir(configPath): true}
	templateFiles := make(map[string]bool)

	inputs := make(chan []string, 1)

	var current api.BuildContext
	stop := func() {
		if current != nil {
			current.Dispose()
			current = nil
		}
	}
	defer stop()

	start := func() error {
		bctx, err := s.start(configPath, input, logger, inputs)
		if err != nil {
			return err
		}
		current = bctx
		return nil
	}
	if err := start(); err != nil {
		return err
	}

	reload := make(chan struct{}, 1)
	rebuild := make(chan struct{}, 1)
	debouncedReload := debounce.New(s.debounce)
	debouncedRebuild := debounce.New(s.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}
			switch name := filepath.Clean(event.Name); {
			case name == configPath:
				debouncedReload(func() { signal(reload) })
			case templateFiles[name]:
				logger.Debug("template import changed", "path", name)
				debouncedRebuild(func() { signal(rebuild) })
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case files := <-inputs:
			templateFiles = make(map[string]bool, len(files))
			for _, f := range files {
				templateFiles[f] = true
				dir := filepath.Dir(f)
				if watchedDirs[dir] {
					continue
				}
				if err := watcher.Add(dir); err != nil {
					logger.Warn("failed to watch template directory", "dir", dir, "error", err)
					continue
				}
				watchedDirs[dir] = true
			}
		case <-rebuild:
			if current != nil {
				current.Rebuild()
			}
		case <-reload:
			s.cli.PrintStep("%s changed, restarting", filepath.Base(configPath))
			stop()
			if err := start(); err != nil {
				s.cli.PrintError("%v", err)
			}
		}
	}
}

// signal wakes a receiver of ch without blocking when a wake-up is already
// pending.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// publish replaces any pending value in ch with files.
func publish(ch chan []string, files []string) {
	for {
		select {
		case ch <- files:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *WatchService) start(configPath string, input BuildInput, logger *slog.Logger, inputs chan []string) (api.BuildContext, error) {
	model, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	model.ApplyMode(input.Mode)

	p := newProject(model, input.Mode, input.Timeout, logger, s.fs)
	p.options.Plugins = append(p.options.Plugins, s.reportPlugin(p, logger, inputs))

	bctx, cerr := api.Context(p.options)
	if cerr != nil {
		return nil, fmt.Errorf("failed to create build context: %w", contextError(cerr))
	}
	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("failed to start watching: %w", err)
	}
	logger.Info("watching", "config", configPath, "entries", len(model.Entries))
	return bctx, nil
}

// reportPlugin prints a build report after each rebuild. It is registered
// after the coordinator so the pages of the build are known.
func (s *WatchService) reportPlugin(p *project, logger *slog.Logger, inputs chan []string) api.Plugin {
	return api.Plugin{
		Name: "entrykit-watch-report",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				res := *result
				last := p.coordinator.LastReport()
				publish(inputs, last.TemplateInputs)
				if err := last.Err; err != nil && len(res.Errors) == 0 {
					res.Errors = append(res.Errors, api.Message{Text: err.Error(), Detail: err})
				}
				report := newReport(s.cli, p)
				collectMessages(report, p, res, logger)
				report.Render()
				return api.OnEndResult{}, nil
			})
		},
	}
}

func contextError(cerr *api.ContextError) error {
	if len(cerr.Errors) == 0 {
		return fmt.Errorf("invalid build options")
	}
	return fmt.Errorf("%s", cerr.Errors[0].Text)
}
