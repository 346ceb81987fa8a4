package adapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viant/afs"

	m "flog.dev/pkg/flog/internal/model"
)

func TestLocalSourceFSAdapter_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("directory lists ruby files without descending", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "b.rb"), "b\n")
		writeTestFile(t, filepath.Join(root, "a.rb"), "a\n")
		writeTestFile(t, filepath.Join(root, "notes.txt"), "skip\n")
		mustMkdir(t, filepath.Join(root, "nested"))
		writeTestFile(t, filepath.Join(root, "nested", "c.rb"), "c\n")

		sources, err := adapter.Resolve(ctx, []m.Path{m.Path(root)})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		want := []string{filepath.Join(root, "a.rb"), filepath.Join(root, "b.rb")}
		assertSourcePaths(t, sources, want)
	})

	t.Run("recursive pattern descends into subdirectories", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "a.rb"), "a\n")
		mustMkdir(t, filepath.Join(root, "nested"))
		writeTestFile(t, filepath.Join(root, "nested", "c.rb"), "c\n")

		sources, err := adapter.Resolve(ctx, []m.Path{m.Path(root + "/...")})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		want := []string{filepath.Join(root, "a.rb"), filepath.Join(root, "nested", "c.rb")}
		assertSourcePaths(t, sources, want)

		for _, source := range sources {
			if source.Format != m.FormatRuby {
				t.Fatalf("Resolve() format = %q, want %q", source.Format, m.FormatRuby)
			}
		}
	})

	t.Run("arguments keep their order", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		first := filepath.Join(root, "z.rb")
		second := filepath.Join(root, "a.sexp")
		writeTestFile(t, first, "z\n")
		writeTestFile(t, second, "[block]\n")

		sources, err := adapter.Resolve(ctx, []m.Path{m.Path(first), m.Path(second)})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		assertSourcePaths(t, sources, []string{first, second})

		if sources[1].Format != m.FormatSexp {
			t.Fatalf("Resolve() format = %q, want %q", sources[1].Format, m.FormatSexp)
		}
	})

	t.Run("missing path is skipped", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		existing := filepath.Join(root, "a.rb")
		writeTestFile(t, existing, "a\n")

		sources, err := adapter.Resolve(ctx, []m.Path{m.Path(filepath.Join(root, "missing.rb")), m.Path(existing)})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		assertSourcePaths(t, sources, []string{existing})
	})

	t.Run("dash selects standard input", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		sources, err := adapter.Resolve(ctx, []m.Path{m.StdinPath})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		if len(sources) != 1 || sources[0].Path != m.StdinPath || sources[0].Format != m.FormatRuby {
			t.Fatalf("Resolve() = %+v, want a single ruby stdin source", sources)
		}
	})

	t.Run("exclude patterns drop matches", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "user.rb"), "u\n")
		writeTestFile(t, filepath.Join(root, "user_spec.rb"), "s\n")

		sources, err := adapter.Resolve(ctx, []m.Path{m.Path(root)}, `_spec\.rb$`)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		assertSourcePaths(t, sources, []string{filepath.Join(root, "user.rb")})
	})

	t.Run("invalid exclude pattern fails", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		if _, err := adapter.Resolve(ctx, []m.Path{"."}, "("); err == nil {
			t.Fatalf("Resolve() expected error for invalid pattern")
		}
	})
}

func TestLocalSourceFSAdapter_Read(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		path := filepath.Join(t.TempDir(), "calc.rb")
		content := "def add(a, b)\n  a + b\nend\n"
		writeTestFile(t, path, content)

		got, err := adapter.Read(ctx, m.Source{Path: m.Path(path), Format: m.FormatRuby})
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}

		if string(got) != content {
			t.Fatalf("Read() = %q, want %q", string(got), content)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		adapter := NewSourceFSAdapter(afs.New(), strings.NewReader("puts 1\n"))

		got, err := adapter.Read(ctx, m.Source{Path: m.StdinPath, Format: m.FormatRuby})
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}

		if string(got) != "puts 1\n" {
			t.Fatalf("Read() = %q, want %q", string(got), "puts 1\n")
		}
	})
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]m.SourceFormat{
		"lib/user.rb":    m.FormatRuby,
		"Rakefile":       m.FormatRuby,
		"tree.sexp":      m.FormatSexp,
		"tree.YAML":      m.FormatSexp,
		"tree.yml":       m.FormatSexp,
		"tree.json":      m.FormatSexp,
		"script.rb.orig": m.FormatRuby,
	}

	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Fatalf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSplitPattern(t *testing.T) {
	tests := []struct {
		in        string
		root      string
		recursive bool
	}{
		{"lib", "lib", false},
		{"lib/...", "lib", true},
		{"...", ".", true},
		{"/...", "/", true},
	}

	for _, tt := range tests {
		root, recursive := splitPattern(tt.in)
		if root != tt.root || recursive != tt.recursive {
			t.Fatalf("splitPattern(%q) = (%q, %v), want (%q, %v)", tt.in, root, recursive, tt.root, tt.recursive)
		}
	}
}

func assertSourcePaths(t *testing.T, sources []m.Source, want []string) {
	t.Helper()

	if len(sources) != len(want) {
		t.Fatalf("got %d sources %+v, want %d %v", len(sources), sources, len(want), want)
	}

	for i, source := range sources {
		if filepath.Clean(string(source.Path)) != filepath.Clean(want[i]) {
			t.Fatalf("source[%d] = %s, want %s", i, source.Path, want[i])
		}
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()

	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create dir %s: %v", path, err)
	}
}
