package source

import (
	"context"
	"sync"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/xml"
)

// Memory serves documents from an in-memory map. It records how often each
// locator was fetched.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]string
	fetches map[string]int
}

// NewMemory returns a Memory source holding docs keyed by locator.
func NewMemory(docs map[string]string) *Memory {
	m := &Memory{docs: make(map[string]string), fetches: make(map[string]int)}
	for k, v := range docs {
		m.docs[k] = v
	}
	return m
}

// Set adds or replaces a document.
func (m *Memory) Set(locator, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[locator] = content
}

// Fetch implements Source.
func (m *Memory) Fetch(ctx context.Context, locator string) (*xml.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	content, ok := m.docs[locator]
	m.fetches[locator]++
	m.mu.Unlock()

	if !ok {
		return nil, errors.NewNotFound("document", locator)
	}
	doc, err := xml.Parse([]byte(content))
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Path: locator, Message: err.Error(), Err: err}
	}
	return doc, nil
}

// Exists implements Source.
func (m *Memory) Exists(ctx context.Context, locator string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[locator]
	return ok, nil
}

// Fetches returns how many times locator was fetched.
func (m *Memory) Fetches(locator string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[locator]
}
