// Package source fetches filing and taxonomy documents by locator.
//
// A locator is either a local file path or an http(s) URL. Linkbases refer
// to their own schema with relative paths and to the published taxonomy with
// absolute URLs, so both kinds appear in one filing.
package source

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/xbrltree/core/xml"
)

// Source returns parsed documents by locator. A document that does not
// exist yields an error matching errors.ErrNotFound.
type Source interface {
	Fetch(ctx context.Context, locator string) (*xml.Document, error)
	Exists(ctx context.Context, locator string) (bool, error)
}

// IsRemote reports whether locator is an http(s) URL.
func IsRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// Separator returns the path separator used inside locator.
func Separator(locator string) string {
	if IsRemote(locator) {
		return "/"
	}
	return string(filepath.Separator)
}

// Dir returns locator without its last path element.
func Dir(locator string) string {
	if IsRemote(locator) {
		if i := strings.LastIndexByte(locator, '/'); i >= 0 {
			return locator[:i]
		}
		return locator
	}
	return filepath.Dir(locator)
}

// Base returns the last path element of locator.
func Base(locator string) string {
	if IsRemote(locator) {
		return locator[strings.LastIndexByte(locator, '/')+1:]
	}
	return filepath.Base(locator)
}

// Join resolves ref against the directory dir. Remote refs are returned
// unchanged.
func Join(dir, ref string) string {
	if IsRemote(ref) {
		return ref
	}
	if IsRemote(dir) {
		base, err := url.Parse(dir + "/")
		if err != nil {
			return dir + "/" + ref
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return dir + "/" + ref
		}
		return base.ResolveReference(rel).String()
	}
	return filepath.Join(dir, filepath.FromSlash(ref))
}

// SplitFragment splits "doc.xsd#id" into "doc.xsd" and "id".
func SplitFragment(href string) (doc, fragment string) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i], href[i+1:]
	}
	return href, ""
}
