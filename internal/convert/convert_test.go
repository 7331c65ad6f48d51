package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/parser"
	"github.com/klauern/snipconv/internal/util"
)

func plistSnippet(trigger, name, scope, content string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple Computer//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>content</key>
	<string>` + content + `</string>
	<key>name</key>
	<string>` + name + `</string>
	<key>scope</key>
	<string>` + scope + `</string>
	<key>tabTrigger</key>
	<string>` + trigger + `</string>
	<key>uuid</key>
	<string>576036C0-A60E-11D9-ABD6-000D93C8BE28</string>
</dict>
</plist>
`
}

const divOutput = "# div snippets for snipMate.\n\n# Div\nsnippet div Div\n\t<div>${1:content}</div>${0}\n"

func setupSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := util.CreateTempDir(t)
	for name, content := range files {
		util.WriteFile(t, filepath.Join(dir, name), content)
	}
	return dir
}

func divFixture() string {
	return plistSnippet("div", "Div", "text.html.basic", "&lt;div&gt;${1:content}&lt;/div&gt;$0")
}

func TestRun(t *testing.T) {
	src := setupSource(t, map[string]string{"div.tmSnippet": divFixture()})
	dst := filepath.Join(util.CreateTempDir(t), "snippets")

	n, err := Run(context.Background(), src, dst)
	util.AssertNoError(t, err)
	util.AssertEqual(t, n, 1)

	util.AssertEqual(t, util.ReadFile(t, filepath.Join(dst, "div.snippets")), divOutput)
}

func TestRun_EmptySource(t *testing.T) {
	src := util.CreateTempDir(t)
	dst := filepath.Join(util.CreateTempDir(t), "out")

	n, err := Run(context.Background(), src, dst)
	util.AssertNoError(t, err)
	util.AssertEqual(t, n, 0)

	if !util.IsDir(dst) {
		t.Errorf("target directory %s was not created", dst)
	}
	if files := util.ListFiles(t, dst); len(files) != 0 {
		t.Errorf("expected no output, got %v", files)
	}
}

func TestConvert_SkipsMalformed(t *testing.T) {
	src := setupSource(t, map[string]string{
		"broken.tmSnippet": `<plist version="1.0"><dict><key>content</key><string>x`,
		"div.tmSnippet":    divFixture(),
	})
	dst := util.CreateTempDir(t)

	result, err := New(DefaultOptions()).Convert(context.Background(), src, dst)
	util.AssertNoError(t, err)
	util.AssertEqual(t, result.Count(), 1)

	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped file, got %d", len(result.Skipped))
	}
	skip := result.Skipped[0]
	util.AssertEqual(t, skip.Path, filepath.Join(src, "broken.tmSnippet"))
	if !errors.Is(skip.Err, ErrParseSkip) {
		t.Errorf("skip error should match ErrParseSkip, got %v", skip.Err)
	}
	if !errors.Is(skip.Err, parser.ErrMalformed) {
		t.Errorf("skip error should keep its cause, got %v", skip.Err)
	}

	if got := util.ListFiles(t, dst); !reflect.DeepEqual(got, []string{"div.snippets"}) {
		t.Errorf("output files = %v", got)
	}
}

func TestConvert_LogsToContextLogger(t *testing.T) {
	src := setupSource(t, map[string]string{
		"broken.tmSnippet": "not a property list",
		"div.tmSnippet":    divFixture(),
	})

	tests := map[string]func(ctx context.Context) error{
		"convert": func(ctx context.Context) error {
			_, err := New(DefaultOptions()).Convert(ctx, src, util.CreateTempDir(t))
			return err
		},
		"scan": func(ctx context.Context) error {
			_, _, err := New(DefaultOptions()).Scan(ctx, src)
			return err
		},
	}

	for name, run := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.New(logging.Options{Level: logging.LevelWarn, Output: &buf})
			ctx := logging.NewContext(context.Background(), logger.With("command", name))

			util.AssertNoError(t, run(ctx))

			out := buf.String()
			if !strings.Contains(out, "skipping snippet file") || !strings.Contains(out, "command="+name) {
				t.Errorf("expected skip warning on the context logger, got %q", out)
			}
		})
	}
}

func TestConvert_SkipReasons(t *testing.T) {
	tests := map[string]string{
		"empty file":         "",
		"missing trigger":    `<plist version="1.0"><dict><key>content</key><string>x</string></dict></plist>`,
		"trigger with space": plistSnippet("two words", "Two", "source.go", "x"),
		"blank content":      plistSnippet("x", "X", "source.go", "   "),
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			src := setupSource(t, map[string]string{"bad.tmSnippet": content})
			result, err := New(DefaultOptions()).Convert(context.Background(), src, util.CreateTempDir(t))
			util.AssertNoError(t, err)
			util.AssertEqual(t, result.Count(), 0)
			util.AssertEqual(t, len(result.Skipped), 1)
		})
	}
}

func TestConvert_Idempotent(t *testing.T) {
	src := setupSource(t, map[string]string{
		"div.tmSnippet": divFixture(),
		"for.tmSnippet": plistSnippet("for", "For", "source.python", "for ${1:x} in ${2:xs}:\n\t$0"),
	})
	dst := util.CreateTempDir(t)

	for _, layout := range []model.Layout{model.LayoutPerSnippet, model.LayoutNamespace} {
		t.Run(layout.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Layout = layout

			_, err := New(opts).Convert(context.Background(), src, dst)
			util.AssertNoError(t, err)
			first := readAll(t, dst)

			_, err = New(opts).Convert(context.Background(), src, dst)
			util.AssertNoError(t, err)
			second := readAll(t, dst)

			if !reflect.DeepEqual(first, second) {
				t.Errorf("second run changed output:\nfirst:  %v\nsecond: %v", first, second)
			}
		})
	}
}

func TestConvert_SourceNotFound(t *testing.T) {
	tests := map[string]func(t *testing.T) string{
		"missing": func(t *testing.T) string {
			return filepath.Join(util.CreateTempDir(t), "nope")
		},
		"regular file": func(t *testing.T) string {
			path := filepath.Join(util.CreateTempDir(t), "file")
			util.WriteFile(t, path, "x")
			return path
		},
	}

	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			src := source(t)
			dst := filepath.Join(util.CreateTempDir(t), "out")

			_, err := Run(context.Background(), src, dst)
			if !errors.Is(err, ErrSourceNotFound) {
				t.Fatalf("expected ErrSourceNotFound, got %v", err)
			}
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			util.AssertEqual(t, cerr.Path, src)
			if !strings.Contains(err.Error(), src) {
				t.Errorf("error %q should name %s", err, src)
			}
			if util.IsDir(dst) {
				t.Error("target directory should not be created when the source is missing")
			}
		})
	}
}

func TestConvert_WriteFailure(t *testing.T) {
	src := setupSource(t, map[string]string{"div.tmSnippet": divFixture()})
	dst := filepath.Join(util.CreateTempDir(t), "file")
	util.WriteFile(t, dst, "not a directory")

	_, err := Run(context.Background(), src, dst)
	if !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("expected ErrWriteFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), dst) {
		t.Errorf("error %q should name %s", err, dst)
	}
}

func TestConvert_NamespaceLayout(t *testing.T) {
	src := setupSource(t, map[string]string{
		"a-div.tmSnippet":          divFixture(),
		"b-def.tmSnippet":          plistSnippet("def", "Function", "source.python", "def ${1:name}():\n\t$0"),
		"c-ul.sublime-snippet":     "<snippet><content>&lt;ul&gt;$0&lt;/ul&gt;</content><tabTrigger>ul</tabTrigger><scope>text.html.basic</scope></snippet>",
		"e-ignored.txt":            "not a snippet",
		"f-unscoped-def.tmSnippet": plistSnippet("todo", "Todo", "", "TODO: $0"),
		"lorem.sublime-snippet":    "<snippet><content>Lorem ipsum</content></snippet>",
	})
	dst := util.CreateTempDir(t)

	opts := DefaultOptions()
	opts.Layout = model.LayoutNamespace
	opts.Domain = "zope"
	result, err := New(opts).Convert(context.Background(), src, dst)
	util.AssertNoError(t, err)
	util.AssertEqual(t, result.Count(), 5)

	want := []string{"_.snippets", "html-basic-zope.snippets", "python-zope.snippets"}
	if got := util.ListFiles(t, dst); !reflect.DeepEqual(got, want) {
		t.Errorf("output files = %v, want %v", got, want)
	}

	html := util.ReadFile(t, filepath.Join(dst, "html-basic-zope.snippets"))
	wantHTML := "# html-basic-zope snippets for snipMate.\n\n" +
		"# Div\nsnippet div Div\n\t<div>${1:content}</div>${0}\n\n" +
		"snippet ul\n\t<ul>${0}</ul>\n"
	util.AssertEqual(t, html, wantHTML)

	global := util.ReadFile(t, filepath.Join(dst, "_.snippets"))
	if !strings.Contains(global, "snippet lorem\n\tLorem ipsum\n") || !strings.Contains(global, "snippet todo Todo\n") {
		t.Errorf("global namespace file missing snippets:\n%s", global)
	}
}

func TestConvert_DuplicateTriggers(t *testing.T) {
	src := setupSource(t, map[string]string{
		"a.tmSnippet": plistSnippet("div", "Div A", "text.html", "a"),
		"b.tmSnippet": plistSnippet("div", "Div B", "text.html", "b"),
	})
	dst := util.CreateTempDir(t)

	result, err := New(DefaultOptions()).Convert(context.Background(), src, dst)
	util.AssertNoError(t, err)
	util.AssertEqual(t, result.Count(), 2)

	want := []string{filepath.Join(dst, "div.snippets"), filepath.Join(dst, "div-2.snippets")}
	if !reflect.DeepEqual(result.Files, want) {
		t.Errorf("Files = %v, want %v", result.Files, want)
	}
	if got := util.ReadFile(t, want[1]); !strings.Contains(got, "# Div B\n") {
		t.Errorf("second file should hold the second snippet in input order:\n%s", got)
	}
}

func TestConvert_DryRun(t *testing.T) {
	src := setupSource(t, map[string]string{"div.tmSnippet": divFixture()})
	dst := filepath.Join(util.CreateTempDir(t), "out")

	opts := DefaultOptions()
	opts.DryRun = true
	result, err := New(opts).Convert(context.Background(), src, dst)
	util.AssertNoError(t, err)
	util.AssertEqual(t, result.Count(), 1)
	util.AssertEqual(t, result.Converted[0].TargetPath, filepath.Join(dst, "div.snippets"))

	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("dry run must not create the target directory")
	}
	if !strings.HasPrefix(result.Summary(), "Dry run") {
		t.Errorf("Summary() should mention dry run:\n%s", result.Summary())
	}
}

func TestConvert_Recursive(t *testing.T) {
	src := setupSource(t, map[string]string{
		"div.tmSnippet":             divFixture(),
		"Python/def.tmSnippet":      plistSnippet("def", "Function", "source.python", "def $1():"),
		"Python/nested/x.tmSnippet": plistSnippet("x", "X", "source.python", "x"),
	})

	tests := map[string]struct {
		recursive bool
		want      int
	}{
		"top level only": {recursive: false, want: 1},
		"whole tree":     {recursive: true, want: 3},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Recursive = tt.recursive
			result, err := New(opts).Convert(context.Background(), src, util.CreateTempDir(t))
			util.AssertNoError(t, err)
			util.AssertEqual(t, result.Count(), tt.want)
		})
	}
}

func TestConvert_CustomFormats(t *testing.T) {
	src := setupSource(t, map[string]string{
		"div.snip":      divFixture(),
		"div.tmSnippet": divFixture(),
	})

	opts := DefaultOptions()
	opts.Formats = map[string]model.SourceFormat{"snip": model.TextMate}
	result, err := New(opts).Convert(context.Background(), src, util.CreateTempDir(t))
	util.AssertNoError(t, err)
	util.AssertEqual(t, result.Count(), 1)
	util.AssertEqual(t, result.Converted[0].Snippet.Source, filepath.Join(src, "div.snip"))

	opts.Formats = map[string]model.SourceFormat{".snip": "vscode"}
	if _, err := New(opts).Convert(context.Background(), src, util.CreateTempDir(t)); err == nil {
		t.Error("expected error for unsupported format mapping")
	}
}

func TestConvert_CustomRegistry(t *testing.T) {
	src := setupSource(t, map[string]string{"greeting.txt": "hello ${1:world}$0"})

	r := parser.NewRegistry()
	r.Register(parser.ParseFunc{
		SourceFormat: model.Sublime,
		Fn: func(path string, data []byte) (model.SourceSnippet, error) {
			return model.SourceSnippet{Trigger: parser.TriggerFromFileName(path), Body: string(data), Path: path}, nil
		},
	})
	util.AssertNoError(t, r.MapExtension(".txt", model.Sublime))

	dst := util.CreateTempDir(t)
	opts := DefaultOptions()
	opts.Registry = r
	_, err := New(opts).Convert(context.Background(), src, dst)
	util.AssertNoError(t, err)

	want := "# greeting snippets for snipMate.\n\nsnippet greeting\n\thello ${1:world}${0}\n"
	util.AssertEqual(t, util.ReadFile(t, filepath.Join(dst, "greeting.snippets")), want)
}

func TestConvert_ContextCanceled(t *testing.T) {
	src := setupSource(t, map[string]string{"div.tmSnippet": divFixture()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(DefaultOptions()).Convert(ctx, src, util.CreateTempDir(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	util.AssertEqual(t, result.Count(), 0)
}

func TestConvert_Progress(t *testing.T) {
	src := setupSource(t, map[string]string{
		"a.tmSnippet": divFixture(),
		"b.tmSnippet": "",
	})

	var events []ProgressEvent
	opts := DefaultOptions()
	opts.Progress = func(e ProgressEvent) { events = append(events, e) }

	_, err := New(opts).Convert(context.Background(), src, util.CreateTempDir(t))
	util.AssertNoError(t, err)

	var types []ProgressEventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []ProgressEventType{ProgressEventStart, ProgressEventFile, ProgressEventFile, ProgressEventComplete}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	util.AssertEqual(t, events[0].Total, 2)
	if events[1].Err != nil {
		t.Errorf("first file should convert, got %v", events[1].Err)
	}
	if !errors.Is(events[2].Err, ErrParseSkip) {
		t.Errorf("second file should be skipped, got %v", events[2].Err)
	}
	util.AssertEqual(t, events[2].Current, 2)
}

func TestConvert_InvalidLayout(t *testing.T) {
	opts := DefaultOptions()
	opts.Layout = "flat"
	if _, err := New(opts).Convert(context.Background(), util.CreateTempDir(t), util.CreateTempDir(t)); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := newError(ErrWriteFailure, "/out/x.snippets", cause)

	util.AssertEqual(t, err.Error(), "write failed: /out/x.snippets: boom")
	if !errors.Is(err, ErrWriteFailure) || !errors.Is(err, cause) {
		t.Error("Error should unwrap to both kind and cause")
	}
	if errors.Is(err, ErrParseSkip) {
		t.Error("Error should not match other kinds")
	}

	bare := newError(ErrSourceNotFound, "/in", nil)
	util.AssertEqual(t, bare.Error(), "source directory not found: /in")
}

func TestResult_Summary(t *testing.T) {
	r := &Result{
		Source:    "/in",
		Target:    "/out",
		Layout:    model.LayoutPerSnippet,
		Converted: []Converted{{}, {}},
		Files:     []string{"/out/a.snippets", "/out/b.snippets"},
		Skipped:   []Skipped{{Path: "/in/bad.tmSnippet", Err: errors.New("malformed")}},
	}

	want := "Converted /in -> /out (per-snippet layout)\n" +
		"  Snippets: 2\n" +
		"  Files:    2\n" +
		"  Skipped:  1\n" +
		"\nSkipped:\n" +
		"  - /in/bad.tmSnippet: malformed\n"
	util.AssertEqual(t, r.Summary(), want)
}

func readAll(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, name := range util.ListFiles(t, dir) {
		out[name] = util.ReadFile(t, filepath.Join(dir, name))
	}
	return out
}

func TestScan(t *testing.T) {
	src := setupSource(t, map[string]string{
		"a.tmSnippet":       divFixture(),
		"b.tmSnippet":       plistSnippet("two words", "Bad", "source.go", "x"),
		"c.sublime-snippet": "<snippet><content>Lorem</content></snippet>",
		"d.txt":             "ignored",
	})

	snippets, skipped, err := New(DefaultOptions()).Scan(context.Background(), src)
	util.AssertNoError(t, err)

	if len(snippets) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(snippets))
	}
	util.AssertEqual(t, snippets[0].Trigger, "div")
	util.AssertEqual(t, snippets[0].Format, model.TextMate)
	util.AssertEqual(t, snippets[1].Trigger, "c")
	util.AssertEqual(t, snippets[1].Format, model.Sublime)

	if len(skipped) != 1 || skipped[0].Path != filepath.Join(src, "b.tmSnippet") {
		t.Errorf("skipped = %+v", skipped)
	}
	if !errors.Is(skipped[0].Err, ErrParseSkip) {
		t.Errorf("skip should match ErrParseSkip, got %v", skipped[0].Err)
	}
}

func TestScan_SourceNotFound(t *testing.T) {
	_, _, err := New(DefaultOptions()).Scan(context.Background(), filepath.Join(util.CreateTempDir(t), "nope"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}
