// Package completion keeps the word list offered while typing a Podfile.
package completion

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultWords is the Podfile DSL vocabulary.
var DefaultWords = []string{
	"platform", "pod", "target", "abstract_target", "abstract!", "inherit!",
	"source", "project", "workspace", "use_frameworks!", "use_modular_headers!",
	"inhibit_all_warnings!", "install!", "plugin", "pre_install", "post_install",
	"post_integrate", "script_phase", "supports_swift_versions",
	"ensure_bundler!", "do", "end", ":ios", ":osx", ":tvos", ":watchos",
	":git", ":branch", ":tag", ":commit", ":path", ":podspec", ":subspecs",
	":configurations", ":modular_headers", ":testspecs", ":linkage", ":static",
}

// Words is a sorted set of completion candidates.
type Words struct {
	words []string
}

func NewWords(words ...string) *Words {
	w := &Words{}
	w.Add(words...)
	return w
}

// Add merges words into the set. Blank words are ignored.
func (w *Words) Add(words ...string) {
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		i := sort.SearchStrings(w.words, word)
		if i < len(w.words) && w.words[i] == word {
			continue
		}
		w.words = append(w.words, "")
		copy(w.words[i+1:], w.words[i:])
		w.words[i] = word
	}
}

func (w *Words) Len() int { return len(w.words) }

// Match returns the words starting with prefix, excluding prefix itself.
// Case is ignored when the prefix is all lower case.
func (w *Words) Match(prefix string) []string {
	if prefix == "" {
		return nil
	}
	fold := strings.ToLower(prefix) == prefix
	var out []string
	for _, word := range w.words {
		if word == prefix {
			continue
		}
		candidate := word
		if fold {
			candidate = strings.ToLower(word)
		}
		if strings.HasPrefix(candidate, prefix) {
			out = append(out, word)
		}
	}
	return out
}

// ScanSpecRepos lists the pod names published in the CocoaPods spec repos
// under dir (normally ~/.cocoapods/repos). A missing dir yields no pods.
func ScanSpecRepos(ctx context.Context, dir string) ([]string, error) {
	seen := make(map[string]struct{})
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipAll
			}
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if name := d.Name(); strings.HasPrefix(name, ".") && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if name, ok := podName(d.Name()); ok {
			seen[name] = struct{}{}
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, err
	}
	pods := make([]string, 0, len(seen))
	for name := range seen {
		pods = append(pods, name)
	}
	sort.Strings(pods)
	return pods, nil
}

func podName(file string) (string, bool) {
	for _, suffix := range []string{".podspec.json", ".podspec"} {
		if name, ok := strings.CutSuffix(file, suffix); ok && name != "" {
			return name, true
		}
	}
	return "", false
}
