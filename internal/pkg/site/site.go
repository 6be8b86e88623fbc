// internal/pkg/site/site.go
package site

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	// ErrNotFound is returned for pages that do not exist
	ErrNotFound = errors.New("page not found")
	// ErrInvalidPath is returned for names that escape the site directory
	ErrInvalidPath = errors.New("invalid page path")
)

// Dir is a directory of static storefront pages
type Dir struct {
	root string
}

// New creates a Dir rooted at root
func New(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the site directory
func (d *Dir) Root() string {
	return d.root
}

// Resolve maps a URL style name to a file inside the site directory
func (d *Dir) Resolve(name string) (string, error) {
	if strings.Contains(name, "\\") || strings.ContainsRune(name, 0) {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + name)
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

// IsPage reports whether name is an HTML page
func IsPage(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}

// Read returns the raw bytes of a page
func (d *Dir) Read(name string) ([]byte, error) {
	file, err := d.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", name, err)
	}
	return data, nil
}

// Open parses a page into a document
func (d *Dir) Open(name string) (*goquery.Document, error) {
	data, err := d.Read(name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Pages lists every HTML page under the site directory, slash separated and
// sorted
func (d *Dir) Pages() ([]string, error) {
	var pages []string
	err := filepath.WalkDir(d.root, func(p string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !IsPage(entry.Name()) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	sort.Strings(pages)
	return pages, nil
}

// Parse parses HTML into a document
func Parse(data []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Render serializes a document back to HTML
func Render(doc *goquery.Document) (string, error) {
	page, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return page, nil
}

// Write renders doc into name under dir, creating directories as needed
func Write(dir, name string, doc *goquery.Document) error {
	page, err := Render(doc)
	if err != nil {
		return err
	}
	target, err := New(dir).Resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, []byte(page), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
