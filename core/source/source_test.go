package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/internal/validation"
)

func TestIsRemote(t *testing.T) {
	tests := []struct {
		locator string
		want    bool
	}{
		{"http://disclosure.edinet-fsa.go.jp/taxonomy/jppfs/2015-03-31/jppfs_cor_2015-03-31.xsd", true},
		{"https://example.com/a.xsd", true},
		{"xbrl/PublicDoc/a.xsd", false},
		{"httpdocs/a.xsd", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.locator); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.locator, got, tt.want)
		}
	}
}

func TestDirAndJoin(t *testing.T) {
	if got := Dir("http://example.com/t/jppfs/a.xsd"); got != "http://example.com/t/jppfs" {
		t.Errorf("Dir(remote) = %q", got)
	}
	local := filepath.Join("xbrl", "PublicDoc", "x_pre.xml")
	if got := Dir(local); got != filepath.Join("xbrl", "PublicDoc") {
		t.Errorf("Dir(local) = %q", got)
	}

	if got := Base("http://example.com/t/jppfs/a_pre.xml"); got != "a_pre.xml" {
		t.Errorf("Base(remote) = %q", got)
	}
	if got := Base(local); got != "x_pre.xml" {
		t.Errorf("Base(local) = %q", got)
	}

	tests := []struct {
		dir, ref, want string
	}{
		{"http://example.com/t/jppfs", "label/jppfs_lab.xml", "http://example.com/t/jppfs/label/jppfs_lab.xml"},
		{"http://example.com/t/jppfs", "../common/c.xsd", "http://example.com/t/common/c.xsd"},
		{"anything", "http://example.com/a.xsd#x", "http://example.com/a.xsd#x"},
		{filepath.Join("xbrl", "PublicDoc"), "x.xsd#x_Heading", filepath.Join("xbrl", "PublicDoc", "x.xsd#x_Heading")},
	}
	for _, tt := range tests {
		if got := Join(tt.dir, tt.ref); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.dir, tt.ref, got, tt.want)
		}
	}
}

func TestSplitFragment(t *testing.T) {
	doc, frag := SplitFragment("a.xsd#a_Heading")
	if doc != "a.xsd" || frag != "a_Heading" {
		t.Errorf("SplitFragment = %q, %q", doc, frag)
	}
	doc, frag = SplitFragment("a.xsd")
	if doc != "a.xsd" || frag != "" {
		t.Errorf("SplitFragment(no fragment) = %q, %q", doc, frag)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// TestFilesFetch verifies local reads and not-found reporting.
func TestFilesFetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.xsd")
	writeFile(t, path, `<schema><element id="a_X" name="X"/></schema>`)

	f := &Files{}
	ctx := context.Background()

	doc, err := f.Fetch(ctx, path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if els, _ := doc.Elements("element"); len(els) != 1 || els[0].Attr("id") != "a_X" {
		t.Error("fetched document is missing a_X")
	}

	_, err = f.Fetch(ctx, filepath.Join(dir, "missing.xsd"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch(missing) = %v, want ErrNotFound", err)
	}

	if ok, err := f.Exists(ctx, path); err != nil || !ok {
		t.Errorf("Exists(path) = %v, %v", ok, err)
	}
	if ok, _ := f.Exists(ctx, dir); ok {
		t.Error("Exists(dir) should be false for directories")
	}
}

func TestFilesFetchParseAndReadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.xml")
	writeFile(t, bad, "<unclosed>")

	f := &Files{}
	_, err := f.Fetch(context.Background(), bad)
	var perr *errors.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("Fetch(bad) = %v, want ParseError", err)
	}

	orig := osReadFile
	defer func() { osReadFile = orig }()
	osReadFile = func(string) ([]byte, error) { return nil, fmt.Errorf("device busy") }

	_, err = f.Fetch(context.Background(), bad)
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Fetch with read failure = %v, want IOError", err)
	}
}

// TestFilesMirror verifies remote locators map into the mirror directory.
func TestFilesMirror(t *testing.T) {
	mirror := t.TempDir()
	writeFile(t, filepath.Join(mirror, "example.com", "t", "a.xsd"), `<schema/>`)

	f := &Files{Mirror: mirror}
	ctx := context.Background()
	if _, err := f.Fetch(ctx, "http://example.com/t/a.xsd"); err != nil {
		t.Errorf("Fetch(mirrored) = %v", err)
	}

	noMirror := &Files{}
	if _, err := noMirror.Fetch(ctx, "http://example.com/t/a.xsd"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch(remote without mirror) = %v, want ErrNotFound", err)
	}
}

// TestFilesMirrorStaysInside verifies hostile locators cannot read files
// outside the mirror.
func TestFilesMirrorStaysInside(t *testing.T) {
	root := t.TempDir()
	mirror := filepath.Join(root, "mirror")
	writeFile(t, filepath.Join(root, "secret.xsd"), `<schema/>`)
	writeFile(t, filepath.Join(mirror, "example.com", "t", "a.xsd"), `<schema/>`)

	f := &Files{Mirror: mirror}
	ctx := context.Background()

	if _, err := f.Fetch(ctx, "http://example.com/../../secret.xsd"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch(dotdot path) = %v, want ErrNotFound", err)
	}
	if _, err := f.Fetch(ctx, "http://example.com/t/../t/a.xsd"); err != nil {
		t.Errorf("Fetch(dotdot inside mirror) = %v", err)
	}

	_, err := f.Fetch(ctx, "http://../secret.xsd")
	var verr *errors.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, validation.ErrInvalidHost) {
		t.Errorf("Fetch(dotdot host) = %v, want invalid host", err)
	}
	if ok, err := f.Exists(ctx, "http://../secret.xsd"); ok || err == nil {
		t.Errorf("Exists(dotdot host) = %v, %v", ok, err)
	}
}

func newTaxonomyServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/t/a.xsd", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<schema><element id="a_X" name="X"/></schema>`)
	})
	mux.HandleFunc("/t/broken.xsd", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestHTTPFetch verifies remote fetches and status mapping.
func TestHTTPFetch(t *testing.T) {
	srv := newTaxonomyServer(t)
	h := &HTTP{Client: srv.Client()}
	ctx := context.Background()

	if _, err := h.Fetch(ctx, srv.URL+"/t/a.xsd"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, err := h.Fetch(ctx, srv.URL+"/t/missing.xsd"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch(missing) = %v, want ErrNotFound", err)
	}
	var ioErr *errors.IOError
	if _, err := h.Fetch(ctx, srv.URL+"/t/broken.xsd"); !errors.As(err, &ioErr) {
		t.Errorf("Fetch(broken) = %v, want IOError", err)
	}
	if _, err := h.Fetch(ctx, "local/a.xsd"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Fetch(local) = %v, want ErrInvalidInput", err)
	}

	if ok, err := h.Exists(ctx, srv.URL+"/t/a.xsd"); err != nil || !ok {
		t.Errorf("Exists(a.xsd) = %v, %v", ok, err)
	}
	if ok, err := h.Exists(ctx, srv.URL+"/t/missing.xsd"); err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
}

// TestRouter verifies mirror-first resolution with network fallback.
func TestRouter(t *testing.T) {
	srv := newTaxonomyServer(t)
	mirror := t.TempDir()
	ctx := context.Background()

	offline := &Router{Files: &Files{Mirror: mirror}}
	if _, err := offline.Fetch(ctx, srv.URL+"/t/a.xsd"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("offline Fetch = %v, want ErrNotFound", err)
	}

	online := &Router{Files: &Files{Mirror: mirror}, Remote: &HTTP{Client: srv.Client()}}
	if _, err := online.Fetch(ctx, srv.URL+"/t/a.xsd"); err != nil {
		t.Errorf("online Fetch = %v", err)
	}
	if ok, err := online.Exists(ctx, srv.URL+"/t/a.xsd"); err != nil || !ok {
		t.Errorf("online Exists = %v, %v", ok, err)
	}

	local := filepath.Join(t.TempDir(), "x.xsd")
	writeFile(t, local, "<schema/>")
	if _, err := online.Fetch(ctx, local); err != nil {
		t.Errorf("Fetch(local) = %v", err)
	}
}

// TestCachedFetchesOnce verifies repeated fetches hit the LRU.
func TestCachedFetchesOnce(t *testing.T) {
	mem := NewMemory(map[string]string{"a.xsd": "<schema/>"})
	c := NewCached(mem, 8)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(ctx, "a.xsd"); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if n := mem.Fetches("a.xsd"); n != 1 {
		t.Errorf("underlying fetches = %d, want 1", n)
	}
	if _, err := c.Fetch(ctx, "missing.xsd"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch(missing) = %v", err)
	}
	if ok, _ := c.Exists(ctx, "a.xsd"); !ok {
		t.Error("Exists(a.xsd) = false")
	}
	if stats := c.Cache.Stats(); stats.Hits != 3 {
		t.Errorf("cache hits = %d, want 3", stats.Hits)
	}
}

func TestCacheLogArgs(t *testing.T) {
	if args := CacheLogArgs(NewMemory(nil)); args != nil {
		t.Errorf("CacheLogArgs(uncached) = %v, want nil", args)
	}

	c := NewCached(NewMemory(map[string]string{"a.xsd": "<schema/>"}), 8)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.Fetch(ctx, "a.xsd"); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	want := []any{
		"doc_cache_hits", int64(1),
		"doc_cache_misses", int64(1),
		"doc_cache_evictions", int64(0),
		"doc_cache_size", 1,
	}
	if got := CacheLogArgs(c); !slices.Equal(got, want) {
		t.Errorf("CacheLogArgs = %v, want %v", got, want)
	}
}
