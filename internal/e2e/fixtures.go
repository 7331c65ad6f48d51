package e2e

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"howett.net/plist"
)

// Fixture provides helpers for creating test fixtures in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// Dir returns the fixture base directory.
func (f *Fixture) Dir() string {
	return f.baseDir
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// TextMateSnippet holds the keys of a TextMate snippet property list.
type TextMateSnippet struct {
	Content    string `plist:"content"`
	Name       string `plist:"name,omitempty"`
	Scope      string `plist:"scope,omitempty"`
	TabTrigger string `plist:"tabTrigger,omitempty"`
	UUID       string `plist:"uuid,omitempty"`
}

// WriteTextMate writes s as an XML property list.
func (f *Fixture) WriteTextMate(relPath string, s TextMateSnippet) string {
	f.t.Helper()

	data, err := plist.MarshalIndent(s, plist.XMLFormat, "\t")
	if err != nil {
		f.t.Fatalf("failed to encode property list: %v", err)
	}
	return f.WriteFile(relPath, string(data))
}

// WriteSublime writes a Sublime Text snippet.
func (f *Fixture) WriteSublime(relPath, trigger, description, scope, content string) string {
	f.t.Helper()

	doc := "<snippet>\n"
	doc += "\t<content><![CDATA[" + content + "]]></content>\n"
	if trigger != "" {
		doc += "\t<tabTrigger>" + trigger + "</tabTrigger>\n"
	}
	if scope != "" {
		doc += "\t<scope>" + scope + "</scope>\n"
	}
	if description != "" {
		doc += "\t<description>" + description + "</description>\n"
	}
	doc += "</snippet>\n"

	return f.WriteFile(relPath, doc)
}

// MkdirAll creates a directory and all parent directories relative to the base.
func (f *Fixture) MkdirAll(relPath string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	if err := os.MkdirAll(fullPath, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Stat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// ReadFile reads and returns the content of a file.
func (f *Fixture) ReadFile(relPath string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	// #nosec G304 - fullPath is constructed from trusted test fixture base and test-provided path
	data, err := os.ReadFile(fullPath)
	if err != nil {
		f.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}

	return string(data)
}

// Files returns the sorted names of regular files directly under the base
// directory. A missing directory yields nil.
func (f *Fixture) Files() []string {
	f.t.Helper()

	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		f.t.Fatalf("failed to read directory %s: %v", f.baseDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// BundleFixture creates a fixture for the Snippets directory of a TextMate
// bundle inside the isolated home.
func (h *Harness) BundleFixture(bundle string) *Fixture {
	h.t.Helper()

	dir := filepath.Join(h.homeDir, "Library", "Application Support", "TextMate", "Bundles", bundle+".tmbundle", "Snippets")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		h.t.Fatalf("failed to create bundle directory: %v", err)
	}

	return NewFixture(h.t, dir)
}

// VimFixture returns a fixture for ~/.vim/snippets. The directory is not
// created so tests can check that conversion creates it.
func (h *Harness) VimFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, filepath.Join(h.homeDir, ".vim", "snippets"))
}

// TempFixture creates a fixture helper for a new temporary directory.
func (h *Harness) TempFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.t.TempDir())
}
