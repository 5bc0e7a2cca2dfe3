package usecase

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/templates"
)

type InitInput struct {
	ProjectDir string
}

type InitOutput struct {
	Success bool
	Files   []string
	Error   error
}

type InitService struct {
	fs      FileSystem
	cli     CLIOutput
	starter func() (fs.FS, error)
}

func NewInitService(fs FileSystem, cli CLIOutput) *InitService {
	return &InitService{
		fs:      fs,
		cli:     cli,
		starter: templates.Starter,
	}
}

func (s *InitService) InitProject(input InitInput) InitOutput {
	s.cli.PrintHeader("entrykit init")

	if s.fs.FileExists(input.ProjectDir) {
		entries, err := s.fs.ReadDir(input.ProjectDir)
		if err != nil {
			return InitOutput{Error: fmt.Errorf("failed to read directory: %w", err)}
		}
		if len(entries) > 0 {
			return InitOutput{Error: fmt.Errorf("directory '%s' already exists and is not empty", input.ProjectDir)}
		}
	}

	starter, err := s.starter()
	if err != nil {
		return InitOutput{Error: fmt.Errorf("failed to open starter project: %w", err)}
	}

	data := core.TemplateData{Project: core.DeriveProjectName(input.ProjectDir)}
	var created []string

	err = fs.WalkDir(starter, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		content, err := fs.ReadFile(starter, path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		name, isTemplate := core.ProcessFilename(templates.TargetName(path))
		target := filepath.Join(input.ProjectDir, filepath.FromSlash(name))

		if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", target, err)
		}
		if err := s.fs.WriteFile(target, core.ProcessContent(content, isTemplate, data), 0o644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", target, err)
		}

		if isTemplate {
			s.cli.PrintFile(target + " (generated)")
		} else {
			s.cli.PrintFile(target)
		}
		created = append(created, target)
		return nil
	})
	if err != nil {
		return InitOutput{Error: err}
	}

	s.cli.PrintSuccess("Created %d files", len(created))
	s.cli.PrintStep("Next steps:")
	s.cli.PrintStep("  cd %s", input.ProjectDir)
	s.cli.PrintStep("  npm install")
	s.cli.PrintStep("  entrykit build")

	return InitOutput{Success: true, Files: created}
}
