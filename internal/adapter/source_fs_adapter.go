// Package adapter contains the infrastructure adapters of flog: source
// acquisition, parsers and the run store.
package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	m "flog.dev/pkg/flog/internal/model"
)

const (
	recursiveSuffix = "/..."
	rubyExt         = ".rb"
)

var sexpExts = map[string]bool{
	".sexp": true,
	".yaml": true,
	".yml":  true,
	".json": true,
}

// SourceFSAdapter resolves path arguments into ordered sources and reads
// their content. It hides direct storage access so the workflow can be
// tested without touching the disk.
type SourceFSAdapter interface {
	// Resolve expands path arguments into sources, in argument order. A
	// directory yields its *.rb files, "dir/..." descends into
	// subdirectories and "-" selects standard input. Paths matching any of
	// the exclude regexes are dropped.
	Resolve(ctx context.Context, paths []m.Path, exclude ...string) ([]m.Source, error)

	// Read loads the full content of a source.
	Read(ctx context.Context, source m.Source) ([]byte, error)
}

// LocalSourceFSAdapter implements SourceFSAdapter on top of afs, so local
// paths and any afs-supported URL work alike.
type LocalSourceFSAdapter struct {
	fs    afs.Service
	stdin io.Reader
}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter reading "-" from
// os.Stdin.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return NewSourceFSAdapter(afs.New(), os.Stdin)
}

// NewSourceFSAdapter constructs a LocalSourceFSAdapter with explicit
// storage and standard input.
func NewSourceFSAdapter(fs afs.Service, stdin io.Reader) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{fs: fs, stdin: stdin}
}

// Resolve implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) Resolve(ctx context.Context, paths []m.Path, exclude ...string) ([]m.Source, error) {
	patterns, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	var sources []m.Source

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if path == m.StdinPath {
			sources = append(sources, m.Source{Path: path, Format: m.FormatRuby})
			continue
		}

		found, err := a.resolvePath(ctx, string(path))
		if err != nil {
			return nil, err
		}

		for _, source := range found {
			if isExcluded(string(source.Path), patterns) {
				slog.Debug("excluded source", "path", source.Path)
				continue
			}

			sources = append(sources, source)
		}
	}

	return sources, nil
}

func (a *LocalSourceFSAdapter) resolvePath(ctx context.Context, path string) ([]m.Source, error) {
	root, recursive := splitPattern(path)

	object, err := a.fs.Object(ctx, root)
	if err != nil {
		slog.Warn("skipping missing path", "path", root, "error", err)
		return nil, nil
	}

	if !object.IsDir() {
		return []m.Source{{Path: m.Path(root), Format: FormatForPath(root)}}, nil
	}

	var files []string

	if recursive {
		files, err = a.walkRuby(ctx, root)
	} else {
		files, err = a.listRuby(ctx, root)
	}

	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(files)

	sources := make([]m.Source, 0, len(files))
	for _, file := range files {
		sources = append(sources, m.Source{Path: m.Path(file), Format: m.FormatRuby})
	}

	return sources, nil
}

func (a *LocalSourceFSAdapter) listRuby(ctx context.Context, root string) ([]string, error) {
	objects, err := a.fs.List(ctx, root)
	if err != nil {
		return nil, err
	}

	var files []string

	for _, object := range objects {
		if object.IsDir() || filepath.Ext(object.Name()) != rubyExt {
			continue
		}

		files = append(files, joinLocation(root, object.Name()))
	}

	return files, nil
}

func (a *LocalSourceFSAdapter) walkRuby(ctx context.Context, root string) ([]string, error) {
	var files []string

	var visitor storage.OnVisit = func(_ context.Context, _, parent string, info os.FileInfo, _ io.Reader) (bool, error) {
		if info.IsDir() || filepath.Ext(info.Name()) != rubyExt {
			return true, nil
		}

		files = append(files, joinLocation(root, parent, info.Name()))

		return true, nil
	}

	if err := a.fs.Walk(ctx, root, visitor); err != nil {
		return nil, err
	}

	return files, nil
}

// Read implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) Read(ctx context.Context, source m.Source) ([]byte, error) {
	if source.Path == m.StdinPath {
		return io.ReadAll(a.stdin)
	}

	return a.fs.DownloadWithURL(ctx, string(source.Path))
}

// FormatForPath picks the parser format from a file extension. Anything that
// is not a serialized tree is treated as Ruby.
func FormatForPath(path string) m.SourceFormat {
	if sexpExts[strings.ToLower(filepath.Ext(path))] {
		return m.FormatSexp
	}

	return m.FormatRuby
}

// splitPattern strips a trailing "/..." and reports whether it was present.
func splitPattern(path string) (string, bool) {
	if path == "..." {
		return ".", true
	}

	if strings.HasSuffix(path, recursiveSuffix) {
		root := strings.TrimSuffix(path, recursiveSuffix)
		if root == "" {
			root = "/"
		}

		return root, true
	}

	return path, false
}

func joinLocation(root string, elements ...string) string {
	if strings.Contains(root, "://") {
		return url.Join(root, elements...)
	}

	return filepath.Join(append([]string{root}, elements...)...)
}

func compileExcludes(exclude []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))

	for _, expr := range exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", expr, err)
		}

		patterns = append(patterns, re)
	}

	return patterns, nil
}

func isExcluded(path string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(path) || re.MatchString(filepath.Base(path)) {
			return true
		}
	}

	return false
}
