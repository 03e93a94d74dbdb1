package verify

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var hrefPattern = regexp.MustCompile(`(?i)\bhref\s*=\s*"(/[^"]*)"`)

// linkChecker resolves root-relative link targets against the tree, caching
// lookups across files.
type linkChecker struct {
	fsys   fs.FS
	assets map[string]struct{}
	exists map[string]bool
}

func newLinkChecker(fsys fs.FS, assetExtensions []string) *linkChecker {
	if len(assetExtensions) == 0 {
		assetExtensions = DefaultAssetExtensions
	}
	assets := make(map[string]struct{}, len(assetExtensions))
	for _, ext := range assetExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		assets[ext] = struct{}{}
	}
	return &linkChecker{fsys: fsys, assets: assets, exists: map[string]bool{}}
}

// check reports root-relative, non-asset targets that match no output file.
// Failures are warnings.
func (c *linkChecker) check(report *Report, file renderedFile) {
	for _, match := range hrefPattern.FindAllStringSubmatchIndex(file.text, -1) {
		if file.opaque(match[0]) {
			continue
		}
		target := html.UnescapeString(file.text[match[2]:match[3]])
		if strings.HasPrefix(target, "//") {
			continue
		}
		target = stripQueryAndFragment(target)
		if c.isAsset(target) {
			continue
		}
		if c.resolves(target) {
			continue
		}
		report.add(file.issue(CheckLinks, SeverityWarning, match[0],
			fmt.Sprintf("link target %s does not resolve to an output file", target)))
	}
}

func (c *linkChecker) isAsset(target string) bool {
	ext := strings.ToLower(path.Ext(target))
	if ext == "" || ext == ".html" || ext == ".htm" {
		return false
	}
	_, ok := c.assets[ext]
	return ok
}

func (c *linkChecker) resolves(target string) bool {
	if ok, cached := c.exists[target]; cached {
		return ok
	}
	ok := false
	for _, candidate := range linkCandidates(target) {
		if !fs.ValidPath(candidate) {
			continue
		}
		if info, err := fs.Stat(c.fsys, candidate); err == nil && !info.IsDir() {
			ok = true
			break
		}
	}
	c.exists[target] = ok
	return ok
}

// linkCandidates lists the files a root-relative target may be served from:
// the direct path, a directory index and an implicit .html extension.
func linkCandidates(target string) []string {
	cleaned := strings.TrimPrefix(target, "/")
	if cleaned == "" {
		return []string{"index.html"}
	}
	dir := strings.HasSuffix(cleaned, "/")
	cleaned = path.Clean(cleaned)
	if dir {
		return []string{path.Join(cleaned, "index.html")}
	}
	return []string{cleaned, path.Join(cleaned, "index.html"), cleaned + ".html"}
}

func stripQueryAndFragment(target string) string {
	if idx := strings.IndexAny(target, "?#"); idx >= 0 {
		target = target[:idx]
	}
	if target == "" {
		return "/"
	}
	return target
}
