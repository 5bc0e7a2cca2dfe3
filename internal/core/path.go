package core

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

func NormalizePublicPath(p string) string {
	if p == "" {
		return "/"
	}
	if strings.Contains(p, "://") || strings.HasPrefix(p, "//") {
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		return p
	}
	if !strings.HasPrefix(p, "/") && !strings.HasPrefix(p, ".") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// PublicURL joins a public path and an output path relative to the outdir.
func PublicURL(publicPath, rel string) string {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	return NormalizePublicPath(publicPath) + strings.TrimPrefix(rel, "/")
}

// OutputRelPath turns a bundler output path (relative to workDir) into a
// path relative to outdir.
func OutputRelPath(workDir, outdir, output string) (string, error) {
	abs := output
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(workDir, filepath.FromSlash(output))
	}
	rel, err := filepath.Rel(outdir, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("output %s is outside of %s", output, outdir)
	}
	return rel, nil
}

func ValidateOutputName(name string) error {
	if name == "" {
		return fmt.Errorf("output name cannot be empty")
	}

	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return fmt.Errorf("output name must be relative")
	}

	if strings.Contains(name, "?") {
		return fmt.Errorf("output name cannot contain query string")
	}

	if strings.Contains(name, "#") {
		return fmt.Errorf("output name cannot contain fragment")
	}

	if strings.Contains(path.Clean(filepath.ToSlash(name)), "..") {
		return fmt.Errorf("output name cannot contain parent directory references")
	}

	if strings.Contains(name, "*") {
		return fmt.Errorf("output name cannot contain wildcards")
	}

	return nil
}
