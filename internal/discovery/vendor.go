package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// vendorDirNames are the ancestor directory names spec §4.5 step 2 treats
// as vendor candidates once they hold enough indexable files.
var vendorDirNames = map[string]bool{
	"libs": true, "lib": true, "plugin": true, "plugins": true, "vendor": true,
	"third-party": true, "target": true, "node_modules": true, "build": true,
	"dist": true, "out": true, "bin": true, "obj": true, "debug": true,
	"release": true, "packages": true, "bower_components": true,
}

type dirStats struct {
	indexable int
	jquery    int
	bootstrap int
	minified  int
	total     int
}

// DetectVendorPatterns walks root once, ignoring only the built-in
// extension blacklist (not the directory blacklist or any .cascadeignore
// — this pass must see everything to judge vendor-ness), and returns the
// gitignore-style glob patterns for directories that look vendored.
func DetectVendorPatterns(root string) ([]string, error) {
	stats := make(map[string]*dirStats)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if blacklistExtensions[ext] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(rel)
		base := strings.ToLower(filepath.Base(path))

		st := stats[dir]
		if st == nil {
			st = &dirStats{}
			stats[dir] = st
		}
		st.total++
		st.indexable++
		if strings.HasPrefix(base, "jquery") {
			st.jquery++
		}
		if strings.HasPrefix(base, "bootstrap") {
			st.bootstrap++
		}
		if isMinified(base) {
			st.minified++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var patterns []string
	addDir := func(dir string) {
		if dir == "." || dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		patterns = append(patterns, dir+"/**")
	}

	for dir, st := range stats {
		for _, seg := range strings.Split(dir, string(filepath.Separator)) {
			if vendorDirNames[strings.ToLower(seg)] && st.indexable > 5 {
				addDir(dir)
				break
			}
		}
		if st.jquery > 3 {
			addDir(dir)
		}
		if st.bootstrap > 2 {
			addDir(dir)
		}
		if st.minified > 10 && st.total > 0 && float64(st.minified)/float64(st.total) > 0.5 {
			addDir(dir)
		}
	}

	return patterns, nil
}

// writeGeneratedIgnoreFile writes patterns to path with a provenance
// header (spec §4.5: "document provenance"). Grounded on
// original_source/src/tools/workspace/discovery.rs's header-comment
// convention for the equivalent generated file.
func writeGeneratedIgnoreFile(path string, patterns []string) error {
	var b strings.Builder
	b.WriteString("# Auto-generated by cascade on ")
	b.WriteString(time.Now().UTC().Format(time.RFC3339))
	b.WriteString("\n# Detected vendor/build directories. Edit freely; this file is not regenerated once present.\n\n")
	for _, p := range patterns {
		fmt.Fprintln(&b, p)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
