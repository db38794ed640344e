package source

import (
	"bytes"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// skipDirs are directories excluded from the filesystem-walk fallback.
var skipDirs = map[string]bool{
	"node_modules": true,
	"deps":         true,
	"__pycache__":  true,
}

// Discovery controls workspace file discovery.
type Discovery struct {
	// Include restricts discovery to paths matching at least one glob
	// (doublestar syntax, relative to root). Empty means all .jl files.
	Include []string
	// Exclude drops paths matching any glob.
	Exclude []string
}

// Files lists the Julia files under root. If root is inside a git
// repository, git ls-files is used so .gitignore is respected; otherwise
// the filesystem is walked, honoring a root-level .gitignore when present.
func (d Discovery) Files(root string) ([]string, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		paths, err = d.walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}
	return d.filter(root, paths), nil
}

// IsJuliaFile reports whether path has a Julia source extension.
func IsJuliaFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jl")
}

func gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		abs := filepath.Join(root, line)
		if IsJuliaFile(abs) {
			paths = append(paths, abs)
		}
	}
	return paths, nil
}

func (d Discovery) walkListFiles(root string) ([]string, error) {
	gi := loadGitignore(root)

	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			name := entry.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsJuliaFile(path) {
			return nil
		}
		if gi != nil {
			if rel, relErr := filepath.Rel(root, path); relErr == nil && gi.MatchesPath(rel) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// filter applies include/exclude globs against root-relative paths.
func (d Discovery) filter(root string, paths []string) []string {
	if len(d.Include) == 0 && len(d.Exclude) == 0 {
		return paths
	}
	var kept []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)
		if len(d.Include) > 0 && !matchAny(d.Include, rel) {
			continue
		}
		if matchAny(d.Exclude, rel) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
