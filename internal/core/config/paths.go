package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	PolicyFile  string
	StateDir    string
	HistoryDB   string
	ProjectKey  string
}

// ResolvePaths makes every configured path absolute. Relative paths are taken
// from the project root, which itself defaults to the nearest ancestor of cwd
// holding a project marker.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.Paths.ProjectRoot)
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	stateDir := ResolveRelative(projectRoot, cfg.Paths.StateDir)
	projectKey := cfg.History.ProjectKey
	if projectKey == "" {
		projectKey = filepath.Base(projectRoot)
	}

	return ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		PolicyFile:  ResolveRelative(projectRoot, cfg.Paths.PolicyFile),
		StateDir:    stateDir,
		HistoryDB:   ResolveRelative(stateDir, cfg.History.Path),
		ProjectKey:  projectKey,
	}, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

var projectMarkers = []string{
	DefaultConfigFile,
	DefaultPolicyFile,
	"go.mod",
	"pom.xml",
	"build.gradle",
	".git",
}

func DetectProjectRoot(candidates []string) (string, error) {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range projectMarkers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
