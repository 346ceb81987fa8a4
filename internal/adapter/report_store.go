package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"gopkg.in/yaml.v3"

	m "flog.dev/pkg/flog/internal/model"
)

const runFileExt = ".yaml"

// ReportStore persists run snapshots under a reports directory.
type ReportStore interface {
	SaveRun(ctx context.Context, dir m.Path, run m.Run) error
	LoadRuns(ctx context.Context, dir m.Path) ([]m.Run, error)
}

// YAMLReportStore writes one YAML document per run through afs.
type YAMLReportStore struct {
	fs  afs.Service
	now func() time.Time
}

// NewYAMLReportStore constructs a store on the local file system.
func NewYAMLReportStore() *YAMLReportStore {
	return NewReportStore(afs.New())
}

// NewReportStore constructs a store on fs.
func NewReportStore(fs afs.Service) *YAMLReportStore {
	return &YAMLReportStore{fs: fs, now: time.Now}
}

// SaveRun implements ReportStore.
func (s *YAMLReportStore) SaveRun(ctx context.Context, dir m.Path, run m.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}

	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}

	name := run.CreatedAt.Format("20060102T150405.000000000Z") + "-" + run.ID + runFileExt
	location := joinLocation(string(dir), name)

	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write run %s: %w", location, err)
	}

	slog.Debug("saved run", "id", run.ID, "location", location)

	return nil
}

// LoadRuns implements ReportStore. Runs come back oldest first; a missing
// directory yields no runs.
func (s *YAMLReportStore) LoadRuns(ctx context.Context, dir m.Path) ([]m.Run, error) {
	exists, err := s.fs.Exists(ctx, string(dir))
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}

	if !exists {
		return nil, nil
	}

	objects, err := s.fs.List(ctx, string(dir))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var runs []m.Run

	for _, object := range objects {
		if object.IsDir() || !strings.EqualFold(filepath.Ext(object.Name()), runFileExt) {
			continue
		}

		location := joinLocation(string(dir), object.Name())

		data, err := s.fs.DownloadWithURL(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("read run %s: %w", location, err)
		}

		var run m.Run
		if err := yaml.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", location, err)
		}

		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})

	return runs, nil
}
