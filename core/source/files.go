package source

import (
	"context"
	"net/url"
	"os"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/xml"
	"github.com/FocuswithJustin/xbrltree/internal/validation"
)

// osReadFile is a variable to allow testing of read errors.
var osReadFile = os.ReadFile

// Files reads documents from the local filesystem. When Mirror is set,
// remote locators are served from a local copy of the taxonomy laid out as
// <Mirror>/<host>/<path>.
type Files struct {
	Mirror string
}

// Path maps locator to a filesystem path. ok is false for remote locators
// when no mirror is configured. Remote locators whose path would leave the
// mirror are rejected.
func (f *Files) Path(locator string) (path string, ok bool, err error) {
	if !IsRemote(locator) {
		return locator, true, nil
	}
	if f.Mirror == "" {
		return "", false, nil
	}
	if err := validation.ValidateLocator(locator); err != nil {
		return "", false, &errors.ValidationError{Field: "locator", Value: locator, Message: err.Error(), Err: err}
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", false, &errors.ParseError{Format: "URL", Path: locator, Message: err.Error(), Err: err}
	}
	path, err = validation.MirrorPath(f.Mirror, u.Host, u.Path)
	if err != nil {
		return "", false, &errors.ValidationError{Field: "locator", Value: locator, Message: err.Error(), Err: err}
	}
	return path, true, nil
}

// Fetch reads and parses the document at locator.
func (f *Files) Fetch(ctx context.Context, locator string) (*xml.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok, err := f.Path(locator)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("document", locator)
	}

	data, err := osReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "document", ID: locator, Err: err}
		}
		return nil, errors.NewIO("read", path, err)
	}

	doc, err := xml.Parse(data)
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Path: locator, Message: err.Error(), Err: err}
	}
	return doc, nil
}

// Exists reports whether locator maps to an existing regular file.
func (f *Files) Exists(ctx context.Context, locator string) (bool, error) {
	path, ok, err := f.Path(locator)
	if err != nil || !ok {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewIO("stat", path, err)
	}
	return info.Mode().IsRegular(), nil
}
