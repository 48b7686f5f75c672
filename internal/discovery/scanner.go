// Package discovery implements the three-layer file-enumeration filter
// of spec §4.5: a fixed built-in blacklist, an auto-generated
// .cascadeignore documenting detected vendor directories, and the user's
// own .cascadeignore edits, on top of per-file size/binary/minified
// checks. Grounded on the teacher's internal/scanner/scanner.go (target
// walking, symlink handling, context cancellation, dedup), generalized
// from a single loaded .gitignore to the three-layer model.
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// blacklistDirs never get walked into, regardless of .cascadeignore.
var blacklistDirs = map[string]bool{
	"target": true, "node_modules": true, "dist": true, ".git": true,
	"bin": true, "obj": true, ".cascade": true, ".svn": true, ".hg": true,
	"__pycache__": true, ".venv": true, "venv": true, ".idea": true, ".vscode": true,
}

// blacklistExtensions never get indexed, regardless of .cascadeignore.
var blacklistExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".bmp": true, ".webp": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true, ".7z": true, ".rar": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true, ".class": true,
	".pdf": true, ".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".pyc": true, ".lock": true,
}

// allowedDotfiles are the dotfiles indexed despite the "no dotfiles"
// default rule.
var allowedDotfiles = map[string]bool{
	".gitignore": true, ".env.example": true,
	".eslintrc": true, ".prettierrc": true, ".editorconfig": true,
}

const maxFileBytes = 1 << 20 // 1 MiB

// Scanner enumerates indexable files under a workspace root.
type Scanner struct {
	root           string
	followSymlinks bool
	ignore         *ignore.GitIgnore
}

// New builds a Scanner for root, loading root/.cascadeignore if present.
// It does not generate a missing file; EnsureIgnoreFile does that.
func New(root string, followSymlinks bool) (*Scanner, error) {
	s := &Scanner{root: root, followSymlinks: followSymlinks}
	if err := s.loadIgnore(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) ignoreFilePath() string {
	return filepath.Join(s.root, ".cascadeignore")
}

func (s *Scanner) loadIgnore() error {
	path := s.ignoreFilePath()
	if _, err := os.Stat(path); err != nil {
		return nil // no ignore file yet; EnsureIgnoreFile creates one on first index
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return fmt.Errorf("load .cascadeignore: %w", err)
	}
	s.ignore = gi
	return nil
}

// EnsureIgnoreFile runs vendor auto-detection (§4.5 step 2) and writes a
// .cascadeignore if one does not already exist, then reloads it.
func (s *Scanner) EnsureIgnoreFile() error {
	path := s.ignoreFilePath()
	if _, err := os.Stat(path); err == nil {
		return nil // user's file already exists; never overwrite it
	}
	patterns, err := DetectVendorPatterns(s.root)
	if err != nil {
		return fmt.Errorf("detect vendor patterns: %w", err)
	}
	if err := writeGeneratedIgnoreFile(path, patterns); err != nil {
		return fmt.Errorf("write .cascadeignore: %w", err)
	}
	return s.loadIgnore()
}

// Discover walks root and returns the canonical absolute path of every
// file that survives all three filter layers plus the per-file checks.
func (s *Scanner) Discover(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if blacklistDirs[d.Name()] {
				return fs.SkipDir
			}
			if s.ignore != nil && s.ignore.MatchesPath(rel) {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			if !s.followSymlinks {
				return nil
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			path = resolved
		}

		if !d.Type().IsRegular() && d.Type()&os.ModeSymlink == 0 {
			return nil
		}

		if s.ignore != nil && s.ignore.MatchesPath(rel) {
			return nil
		}

		if !s.acceptFile(path, rel, d) {
			return nil
		}

		canonical, err := Canonicalize(path)
		if err != nil {
			return nil
		}
		files = append(files, canonical)
		return nil
	})
	if err != nil && err != context.Canceled {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return files, err
}

func (s *Scanner) acceptFile(path, rel string, d fs.DirEntry) bool {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	if strings.HasPrefix(base, ".") && !allowedDotfiles[base] {
		return false
	}
	if blacklistExtensions[ext] {
		return false
	}
	if isMinified(base) {
		return false
	}

	info, err := d.Info()
	if err != nil {
		return false
	}
	if info.Size() > maxFileBytes {
		return false
	}

	if ext == "" {
		return sniffPrintable(path)
	}
	return true
}

// isMinified matches the §4.5 minified-file skip rule.
func isMinified(base string) bool {
	for _, pat := range []string{"*.min.*", "*.bundle.*"} {
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// sniffPrintable implements §4.5's extensionless-file check: read the
// first 512 bytes, require no NUL byte and at least 80% printable.
func sniffPrintable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	buf = buf[:n]
	if n == 0 {
		return true
	}
	if bytes.IndexByte(buf, 0) >= 0 {
		return false
	}
	printable := 0
	for _, b := range buf {
		if (b >= 0x20 && b < 0x7f) || b == '\n' || b == '\r' || b == '\t' {
			printable++
		}
	}
	return float64(printable)/float64(n) >= 0.8
}

// Canonicalize resolves path to its absolute, symlink-resolved form
// (spec §4.5's note about /var → /private/var aliasing).
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
