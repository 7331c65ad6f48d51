package snipmate

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/util"
)

func divSource() model.SourceSnippet {
	return model.SourceSnippet{
		Name:    "Div",
		Trigger: "div",
		Body:    "<div>${1:content}</div>$0",
		Scope:   "text.html.basic",
		Path:    "/snips/div.tmSnippet",
		Format:  model.TextMate,
	}
}

func TestConvert(t *testing.T) {
	got, err := Convert(divSource(), "")
	util.AssertNoError(t, err)

	want := model.ConvertedSnippet{
		Trigger:   "div",
		Name:      "Div",
		Body:      "<div>${1:content}</div>${0}",
		Namespace: "html-basic",
		FileName:  "div",
		Source:    "/snips/div.tmSnippet",
	}
	if got != want {
		t.Errorf("Convert() = %+v, want %+v", got, want)
	}
}

func TestConvert_Invalid(t *testing.T) {
	tests := map[string]model.SourceSnippet{
		"whitespace in trigger": {Trigger: "two words", Body: "x"},
		"empty trigger":         {Trigger: "", Body: "x"},
		"blank body":            {Trigger: "x", Body: " \n\t"},
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Convert(src, ""); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestConvert_NameFolded(t *testing.T) {
	src := divSource()
	src.Name = "Div\n  block"
	got, err := Convert(src, "")
	util.AssertNoError(t, err)
	util.AssertEqual(t, got.Name, "Div block")
}

func TestConvert_TriggerNeedsSanitizing(t *testing.T) {
	src := divSource()
	src.Trigger = "a/b"
	got, err := Convert(src, "")
	util.AssertNoError(t, err)
	util.AssertEqual(t, got.Trigger, "a/b")
	util.AssertEqual(t, got.FileName, "a_b")
}

func TestNamespace(t *testing.T) {
	tests := map[string]struct {
		scope  string
		domain string
		want   string
	}{
		"three parts":        {scope: "text.html.basic", want: "html-basic"},
		"two parts":          {scope: "source.python", want: "python"},
		"extra parts cut":    {scope: "source.js.embedded.html", want: "js-embedded"},
		"first of list":      {scope: "source.js, source.ts", want: "js"},
		"descendant":         {scope: "text.html.basic meta.tag", want: "html-basic"},
		"empty":              {scope: "", want: GlobalNamespace},
		"single part":        {scope: "text", want: GlobalNamespace},
		"trailing dot":       {scope: "source.", want: GlobalNamespace},
		"with domain":        {scope: "source.python", domain: "django", want: "python-django"},
		"domain on global":   {scope: "", domain: "django", want: GlobalNamespace},
		"unsafe characters":  {scope: "source.c:sharp", want: "c_sharp"},
		"exclusion stripped": {scope: "-source.ruby", want: "ruby"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Namespace(tt.scope, tt.domain); got != tt.want {
				t.Errorf("Namespace(%q, %q) = %q, want %q", tt.scope, tt.domain, got, tt.want)
			}
		})
	}
}

func TestRenderFile_Single(t *testing.T) {
	c, err := Convert(divSource(), "")
	util.AssertNoError(t, err)
	got := RenderFile(c.Trigger, []model.ConvertedSnippet{c})
	util.GoldenFile(t, "testdata", "div", string(got))
}

func TestRenderFile_Namespace(t *testing.T) {
	snippets := []model.ConvertedSnippet{
		{Trigger: "div", Name: "Div", Body: "<div>${1:content}</div>${0}"},
		{Trigger: "ul", Name: "Unordered List", Body: "<ul>\n\t<li>${1:item}</li>\n</ul>"},
		{Trigger: "br", Body: "<br />"},
	}
	got := RenderFile("html-basic", snippets)
	util.GoldenFile(t, "testdata", "html-basic", string(got))
}

func TestRenderFile_BodyLinesIndented(t *testing.T) {
	got := string(RenderFile("x", []model.ConvertedSnippet{{Trigger: "x", Body: "a\n\nb"}}))
	if !strings.Contains(got, "snippet x\n\ta\n\t\n\tb\n") {
		t.Errorf("body not tab-indented line by line:\n%s", got)
	}
}

func TestWriter_PerSnippet(t *testing.T) {
	dir := filepath.Join(util.CreateTempDir(t), "out")
	w, err := NewWriter(dir, DefaultOptions())
	util.AssertNoError(t, err)

	c, err := Convert(divSource(), "")
	util.AssertNoError(t, err)

	path, err := w.Add(c)
	util.AssertNoError(t, err)
	util.AssertEqual(t, path, filepath.Join(dir, "div.snippets"))

	got := util.ReadFile(t, path)
	util.GoldenFile(t, "testdata", "div", got)

	paths, err := w.Flush()
	util.AssertNoError(t, err)
	if len(paths) != 0 {
		t.Errorf("Flush() on per-snippet layout returned %v", paths)
	}
}

func TestWriter_DuplicateNames(t *testing.T) {
	dir := util.CreateTempDir(t)
	w, err := NewWriter(dir, DefaultOptions())
	util.AssertNoError(t, err)

	for _, trig := range []string{"div", "div", "Div", "div-2"} {
		_, err := w.Add(model.ConvertedSnippet{Trigger: trig, FileName: trig, Body: trig})
		util.AssertNoError(t, err)
	}

	want := []string{"Div-3.snippets", "div-2-2.snippets", "div-2.snippets", "div.snippets"}
	if got := util.ListFiles(t, dir); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
	if got := util.ReadFile(t, filepath.Join(dir, "div-2.snippets")); !strings.Contains(got, "snippet div\n") {
		t.Errorf("div-2.snippets should hold the second div snippet, got:\n%s", got)
	}
}

func TestWriter_Namespace(t *testing.T) {
	dir := util.CreateTempDir(t)
	w, err := NewWriter(dir, Options{Layout: model.LayoutNamespace, Extension: "snippets"})
	util.AssertNoError(t, err)

	adds := []model.ConvertedSnippet{
		{Trigger: "div", Name: "Div", Body: "<div>${1:content}</div>${0}", Namespace: "html-basic"},
		{Trigger: "def", Body: "def ${1:name}():", Namespace: "python"},
		{Trigger: "ul", Name: "Unordered List", Body: "<ul>\n\t<li>${1:item}</li>\n</ul>", Namespace: "html-basic"},
		{Trigger: "br", Body: "<br />", Namespace: "html-basic"},
	}
	for _, c := range adds {
		path, err := w.Add(c)
		util.AssertNoError(t, err)
		util.AssertEqual(t, path, filepath.Join(dir, c.Namespace+".snippets"))
	}

	if got := util.ListFiles(t, dir); len(got) != 0 {
		t.Fatalf("namespace layout wrote before Flush: %v", got)
	}

	paths, err := w.Flush()
	util.AssertNoError(t, err)
	want := []string{filepath.Join(dir, "html-basic.snippets"), filepath.Join(dir, "python.snippets")}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Flush() = %v, want %v", paths, want)
	}

	util.GoldenFile(t, "testdata", "html-basic", util.ReadFile(t, paths[0]))
}

func TestWriter_DryRun(t *testing.T) {
	dir := filepath.Join(util.CreateTempDir(t), "never")
	w, err := NewWriter(dir, Options{DryRun: true})
	util.AssertNoError(t, err)

	path, err := w.Add(model.ConvertedSnippet{Trigger: "x", FileName: "x", Body: "x"})
	util.AssertNoError(t, err)
	util.AssertEqual(t, path, filepath.Join(dir, "x.snippets"))

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("dry run created %s", dir)
	}
}

func TestNewWriter_Errors(t *testing.T) {
	t.Run("invalid layout", func(t *testing.T) {
		if _, err := NewWriter(util.CreateTempDir(t), Options{Layout: "flat"}); err == nil {
			t.Error("expected error for unknown layout")
		}
	})

	t.Run("target is a file", func(t *testing.T) {
		file := filepath.Join(util.CreateTempDir(t), "file")
		util.WriteFile(t, file, "x")

		_, err := NewWriter(file, DefaultOptions())
		var werr *WriteError
		if !errors.As(err, &werr) {
			t.Fatalf("expected *WriteError, got %v", err)
		}
		util.AssertEqual(t, werr.Path, file)
	})
}
