// Package labelcache persists parsed label linkbases so a taxonomy's label
// files, which run to tens of megabytes, are parsed once per machine rather
// than once per run.
//
// Entries are addressed by the BLAKE3 hash of the label linkbase locator.
// Identical locators always map to the same entry.
package labelcache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ErrMiss is returned by Load when no entry exists for a locator.
var ErrMiss = errors.New("label cache miss")

// ErrCorrupt is returned by Load when an entry exists but cannot be decoded.
// Callers recover by reparsing the label linkbase and saving over it.
var ErrCorrupt = errors.New("label cache entry corrupt")

// Record is one label of one element.
type Record struct {
	ID   string `json:"id"`   // element id in the schema (href fragment)
	Role string `json:"role"` // label role URI
	Text string `json:"text"`
}

// Store is a persistent map from label linkbase locator to its records.
// Concurrent writers to the same locator are not coordinated.
type Store interface {
	Load(ctx context.Context, locator string) ([]Record, error)
	Save(ctx context.Context, locator string, records []Record) error
	Clear(ctx context.Context) error
	Close() error
}

// Key returns the hex BLAKE3-256 digest of locator.
func Key(locator string) string {
	h := blake3.Sum256([]byte(locator))
	return hex.EncodeToString(h[:])
}

// entryVersion is bumped whenever the encoded layout changes; older entries
// then read as corrupt and are rebuilt.
const entryVersion = 1

type entry struct {
	Version int      `json:"version"`
	Locator string   `json:"locator"`
	Records []Record `json:"records"`
}

func encodeEntry(locator string, records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(entry{Version: entryVersion, Locator: locator, Records: records})
	if err != nil {
		return nil, fmt.Errorf("encode label cache entry for %s: %w", locator, err)
	}
	return data, nil
}

func decodeEntry(locator string, data []byte) ([]Record, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, locator, err)
	}
	if e.Version != entryVersion {
		return nil, fmt.Errorf("%w: %s: version %d", ErrCorrupt, locator, e.Version)
	}
	if e.Locator != locator {
		return nil, fmt.Errorf("%w: %s: entry belongs to %s", ErrCorrupt, locator, e.Locator)
	}
	return e.Records, nil
}

// Nop is a Store that never holds anything.
type Nop struct{}

func (Nop) Load(context.Context, string) ([]Record, error) { return nil, ErrMiss }
func (Nop) Save(context.Context, string, []Record) error   { return nil }
func (Nop) Clear(context.Context) error                    { return nil }
func (Nop) Close() error                                   { return nil }

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Dir        string // file backend root
	SQLitePath string // sqlite backend database
}

// Open returns the Store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.SQLitePath)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown label cache backend %q", opts.Backend)
	}
}
