package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/observability"
	"github.com/couchcryptid/education-choropleth/internal/render"
	"github.com/couchcryptid/education-choropleth/internal/topojson"
)

// CountiesObject is the topology object holding county geometries.
const CountiesObject = "counties"

var ErrNotLoaded = errors.New("datasets not loaded")

// DatasetLoader fetches the two input datasets.
type DatasetLoader interface {
	FetchTopology(ctx context.Context) (*topojson.Topology, error)
	FetchEducation(ctx context.Context) ([]domain.EducationRecord, error)
}

// PageRenderer writes a complete HTML page for the given input.
type PageRenderer interface {
	Page(w io.Writer, in render.Input) error
}

// Exporter publishes joined county records.
type Exporter interface {
	Export(ctx context.Context, p domain.Palette, renderedAt time.Time, counties []domain.CountyExport) error
}

// Pipeline loads both datasets once, joins them, and renders pages on demand.
type Pipeline struct {
	loader   DatasetLoader
	renderer PageRenderer
	exporter Exporter
	cache    *render.PageCache
	palette  domain.Palette
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu         sync.RWMutex
	loaded     bool
	features   []domain.CountyFeature
	records    []domain.EducationRecord
	renderedAt time.Time
}

// New creates a Pipeline. A nil exporter disables export.
func New(l DatasetLoader, r PageRenderer, e Exporter, cache *render.PageCache, palette domain.Palette, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:   l,
		renderer: r,
		exporter: e,
		cache:    cache,
		palette:  palette,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the first page has been rendered.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("map has not been rendered yet")
	}
	return nil
}

// Ready reports whether Run has completed successfully.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// DefaultPalette returns the palette used by Run.
func (p *Pipeline) DefaultPalette() domain.Palette { return p.palette }

// Run loads the datasets, renders the default page to w (when non-nil),
// exports the joined counties, and marks the pipeline ready. A failed fetch
// of either dataset aborts the run before anything is rendered.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) error {
	p.logger.Info("pipeline started", "palette", p.palette.Key())

	if err := p.Load(ctx); err != nil {
		return err
	}

	out := w
	if out == nil {
		out = io.Discard
	}
	if err := p.Render(out, p.palette); err != nil {
		return err
	}

	if p.exporter != nil {
		if err := p.export(ctx); err != nil {
			// The page is already rendered; a failed export does not block serving it.
			p.metrics.ExportErrors.Inc()
			p.logger.Error("export failed", "error", err)
		}
	}

	p.ready.Store(true)
	p.metrics.PipelineReady.Set(1)
	p.logger.Info("pipeline finished")
	return nil
}

// Load fetches both datasets concurrently, decodes the county features and
// joins them to the education records.
func (p *Pipeline) Load(ctx context.Context) error {
	var (
		topo    *topojson.Topology
		records []domain.EducationRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		topo, err = p.loader.FetchTopology(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = p.loader.FetchEducation(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	features, err := topojson.Features(topo, CountiesObject)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	matched := domain.Join(features, records)
	p.metrics.CountiesRendered.Set(float64(len(features)))
	p.metrics.CountiesWithoutData.Set(float64(len(features) - matched))
	p.logger.Info("datasets joined",
		"counties", len(features),
		"records", len(records),
		"matched", matched,
	)
	if matched < len(features) {
		p.logger.Warn("counties without education data", "count", len(features)-matched)
	}

	p.mu.Lock()
	p.loaded = true
	p.features = features
	p.records = records
	p.renderedAt = domain.Now()
	p.mu.Unlock()
	return nil
}

// Render writes the page for palette pal to w, using the page cache.
func (p *Pipeline) Render(w io.Writer, pal domain.Palette) error {
	p.mu.RLock()
	loaded, features, records, renderedAt := p.loaded, p.features, p.records, p.renderedAt
	p.mu.RUnlock()
	if !loaded {
		return ErrNotLoaded
	}

	page, hit, err := p.cache.Get(pal.Key(), func(buf io.Writer) error {
		start := time.Now()
		scale, err := domain.NewScale(records, pal)
		if err != nil {
			return err
		}
		in := render.Input{Features: features, Scale: scale, RenderedAt: renderedAt}
		if err := p.renderer.Page(buf, in); err != nil {
			return err
		}
		p.metrics.RenderDuration.Observe(time.Since(start).Seconds())
		p.logger.Debug("page rendered", "palette", pal.Key(), "duration", time.Since(start))
		return nil
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", pal.Key(), err)
	}
	if hit {
		p.metrics.RenderCache.WithLabelValues("hit").Inc()
	} else {
		p.metrics.RenderCache.WithLabelValues("miss").Inc()
	}

	if _, err := w.Write(page); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

func (p *Pipeline) export(ctx context.Context) error {
	p.mu.RLock()
	features, records, renderedAt := p.features, p.records, p.renderedAt
	p.mu.RUnlock()

	scale, err := domain.NewScale(records, p.palette)
	if err != nil {
		return err
	}
	counties := make([]domain.CountyExport, len(features))
	for i := range features {
		counties[i] = domain.ExportCounty(features[i], scale)
	}
	if err := p.exporter.Export(ctx, p.palette, renderedAt, counties); err != nil {
		return err
	}
	p.metrics.CountiesExported.Add(float64(len(counties)))
	return nil
}
