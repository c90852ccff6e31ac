package project

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Root returns the top of the git work tree holding the Podfile, or "".
func (p *Project) Root() string {
	gitDir, top, err := findGitDir(filepath.Dir(p.path))
	if err != nil || gitDir == "" {
		return ""
	}
	return top
}

// Branch returns the checked out branch of the Podfile's repository, a
// "detached:<sha>" marker, or "" outside a repository.
func (p *Project) Branch() string {
	gitDir, _, err := findGitDir(filepath.Dir(p.path))
	if err != nil {
		return ""
	}
	branch, err := readHead(gitDir)
	if err != nil {
		return ""
	}
	return branch
}

// findGitDir walks up from dir looking for .git, following "gitdir:" files
// used by worktrees and submodules.
func findGitDir(dir string) (gitDir, top string, err error) {
	for {
		candidate := filepath.Join(dir, ".git")
		info, statErr := os.Stat(candidate)
		if statErr == nil {
			if info.IsDir() {
				return candidate, dir, nil
			}
			if info.Mode().IsRegular() {
				target, err := readGitFile(candidate)
				if err != nil {
					return "", "", err
				}
				if !filepath.IsAbs(target) {
					target = filepath.Join(dir, target)
				}
				return target, dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", errors.New("not a git repository")
		}
		dir = parent
	}
}

func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(line, prefix) {
		return "", errors.New("malformed .git file")
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), nil
}

func readHead(gitDir string) (string, error) {
	f, err := os.Open(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", errors.New("empty HEAD")
	}
	line := strings.TrimSpace(scanner.Text())
	if ref, ok := strings.CutPrefix(line, "ref:"); ok {
		return strings.TrimPrefix(strings.TrimSpace(ref), "refs/heads/"), nil
	}
	if len(line) >= 7 {
		return "detached:" + line[:7], nil
	}
	return "detached", nil
}
