package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/nmftune/blobstore"
	"github.com/hupe1980/nmftune/codec"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/search"
)

const (
	manifestBlob = "manifest.json"
	historyBlob  = "history.json"
	modelBlob    = "model.json"
	configBlob   = "config.json"
)

// Run is one complete tuning run: what was searched, what won, and
// the configuration that produced it.
type Run struct {
	// ID identifies the run. Empty on save means a fresh UUID.
	ID string `json:"id"`

	// CreatedAt is the save timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Trials is the full search history in submission order.
	Trials []search.Trial `json:"-"`

	// Model is the final refit model. Optional.
	Model *nmf.Model `json:"-"`

	// Config is the tuning configuration snapshot. Optional; any
	// codec-encodable value.
	Config json.RawMessage `json:"-"`

	// BestTrialID records which trial won selection, -1 when no
	// selection ran.
	BestTrialID int `json:"best_trial_id"`
}

// manifest is the last blob written; its presence commits the run.
type manifest struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	Codec       string    `json:"codec"`
	Blobs       []string  `json:"blobs"`
	BestTrialID int       `json:"best_trial_id"`
}

// Writer saves and loads runs on a blob store.
type Writer struct {
	// Store is the backing blob store. Required.
	Store blobstore.Store

	// Codec encodes run blobs. Nil means codec.Default.
	Codec codec.Codec

	// Concurrency bounds parallel blob uploads per save. <= 0 means 4.
	Concurrency int64

	// Logger receives save/load logs. Nil discards.
	Logger *slog.Logger
}

func runPath(id, blob string) string {
	return path.Join("runs", id, blob)
}

// SaveRun persists the run and returns its id. All data blobs upload
// in parallel; the manifest goes last, so a partially saved run is
// never loadable.
func (w *Writer) SaveRun(ctx context.Context, run *Run) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}

	c := w.codec()
	m := manifest{
		RunID:       id,
		CreatedAt:   time.Now().UTC(),
		Codec:       c.Name(),
		BestTrialID: run.BestTrialID,
	}

	blobs := map[string][]byte{}

	historyData, err := c.Marshal(run.Trials)
	if err != nil {
		return "", fmt.Errorf("artifact: encode history: %w", err)
	}
	blobs[historyBlob] = historyData

	if run.Model != nil {
		modelData, err := c.Marshal(toModelRecord(run.Model))
		if err != nil {
			return "", fmt.Errorf("artifact: encode model: %w", err)
		}
		blobs[modelBlob] = modelData
	}

	if run.Config != nil {
		blobs[configBlob] = run.Config
	}

	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := semaphore.NewWeighted(concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for name, data := range blobs {
		m.Blobs = append(m.Blobs, name)
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return w.Store.Put(gctx, runPath(id, name), data)
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("artifact: save run %s: %w", id, err)
	}

	manifestData, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	if err := w.Store.Put(ctx, runPath(id, manifestBlob), manifestData); err != nil {
		return "", fmt.Errorf("artifact: commit run %s: %w", id, err)
	}

	w.logger().Info("run saved",
		slog.String("run", id),
		slog.Int("trials", len(run.Trials)),
		slog.Int("blobs", len(blobs)))
	return id, nil
}

// LoadRun reads a committed run back. Runs without a manifest are
// invisible: blobstore.ErrNotFound.
func (w *Writer) LoadRun(ctx context.Context, id string) (*Run, error) {
	manifestData, err := w.Store.Get(ctx, runPath(id, manifestBlob))
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(manifestData, &m); err != nil {
		return nil, fmt.Errorf("artifact: decode manifest of run %s: %w", id, err)
	}

	c, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, fmt.Errorf("artifact: run %s was written with unknown codec %q", id, m.Codec)
	}

	run := &Run{
		ID:          m.RunID,
		CreatedAt:   m.CreatedAt,
		BestTrialID: m.BestTrialID,
	}

	for _, name := range m.Blobs {
		data, err := w.Store.Get(ctx, runPath(id, name))
		if err != nil {
			return nil, fmt.Errorf("artifact: run %s blob %s: %w", id, name, err)
		}

		switch name {
		case historyBlob:
			if err := c.Unmarshal(data, &run.Trials); err != nil {
				return nil, fmt.Errorf("artifact: decode history of run %s: %w", id, err)
			}
		case modelBlob:
			var rec modelRecord
			if err := c.Unmarshal(data, &rec); err != nil {
				return nil, fmt.Errorf("artifact: decode model of run %s: %w", id, err)
			}
			if run.Model, err = rec.model(); err != nil {
				return nil, err
			}
		case configBlob:
			run.Config = data
		}
	}

	return run, nil
}

// ListRuns returns the ids of all committed runs, sorted.
func (w *Writer) ListRuns(ctx context.Context) ([]string, error) {
	names, err := w.Store.List(ctx, "runs/")
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, name := range names {
		if path.Base(name) != manifestBlob {
			continue
		}
		rel := strings.TrimPrefix(name, "runs/")
		ids = append(ids, path.Dir(rel))
	}
	return ids, nil
}

// DeleteRun removes a run and all its blobs. The manifest goes first,
// so a half-deleted run is already invisible to LoadRun.
func (w *Writer) DeleteRun(ctx context.Context, id string) error {
	if err := w.Store.Delete(ctx, runPath(id, manifestBlob)); err != nil {
		return err
	}

	names, err := w.Store.List(ctx, path.Join("runs", id)+"/")
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := w.Store.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) codec() codec.Codec {
	if w.Codec != nil {
		return w.Codec
	}
	return codec.Default
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.DiscardHandler)
}
