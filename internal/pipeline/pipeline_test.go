package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/observability"
	"github.com/couchcryptid/education-choropleth/internal/pipeline"
	"github.com/couchcryptid/education-choropleth/internal/render"
	"github.com/couchcryptid/education-choropleth/internal/topojson"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

const testTopology = `{
  "type": "Topology",
  "arcs": [
    [[0,0],[10,0],[10,10]],
    [[10,10],[0,10],[0,0]],
    [[10,0],[20,0],[20,10],[10,10]]
  ],
  "objects": {"counties": {"type": "GeometryCollection", "geometries": [
    {"type": "Polygon", "id": 1001, "arcs": [[0, 1]]},
    {"type": "Polygon", "id": 1003, "arcs": [[2, -1]]},
    {"type": "Polygon", "id": 1005, "arcs": [[0, 1]]}
  ]}}
}`

type mockLoader struct {
	topoErr   error
	eduErr    error
	records   []domain.EducationRecord
	topoCalls atomic.Int32
	eduCalls  atomic.Int32
}

func (m *mockLoader) FetchTopology(_ context.Context) (*topojson.Topology, error) {
	m.topoCalls.Add(1)
	if m.topoErr != nil {
		return nil, m.topoErr
	}
	return topojson.Decode(strings.NewReader(testTopology))
}

func (m *mockLoader) FetchEducation(_ context.Context) ([]domain.EducationRecord, error) {
	m.eduCalls.Add(1)
	if m.eduErr != nil {
		return nil, m.eduErr
	}
	return m.records, nil
}

type mockExporter struct {
	err        error
	palette    domain.Palette
	renderedAt time.Time
	counties   []domain.CountyExport
}

func (m *mockExporter) Export(_ context.Context, p domain.Palette, renderedAt time.Time, counties []domain.CountyExport) error {
	m.palette = p
	m.renderedAt = renderedAt
	m.counties = counties
	return m.err
}

type countingRenderer struct {
	inner *render.Renderer
	calls int
}

func (c *countingRenderer) Page(w io.Writer, in render.Input) error {
	c.calls++
	return c.inner.Page(w, in)
}

func testRecords() []domain.EducationRecord {
	return []domain.EducationRecord{
		{FIPS: 1001, AreaName: "Autauga County", State: "AL", BachelorsOrHigher: 10},
		{FIPS: 1003, AreaName: "Baldwin County", State: "AL", BachelorsOrHigher: 70},
	}
}

func newTestPipeline(l pipeline.DatasetLoader, r pipeline.PageRenderer, e pipeline.Exporter) *pipeline.Pipeline {
	return pipeline.New(l, r, e, render.NewPageCache(4), domain.DefaultPalette(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	ldr := &mockLoader{records: testRecords()}
	exp := &mockExporter{}
	p := newTestPipeline(ldr, render.New(), exp)

	var page bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &page))

	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.EqualValues(t, 1, ldr.topoCalls.Load())
	assert.EqualValues(t, 1, ldr.eduCalls.Load())

	out := page.String()
	assert.Equal(t, 3, strings.Count(out, `class="county"`))
	assert.Contains(t, out, `<meta name="rendered-at" content="2024-04-26T15:00:00Z">`)
	assert.Contains(t, out, `data-tooltip="Baldwin County, AL: 70%"`)

	assert.Equal(t, "greens-6", exp.palette.Key())
	assert.Equal(t, time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC), exp.renderedAt)
	want := []domain.CountyExport{
		{FIPS: 1001, AreaName: "Autauga County", State: "AL", BachelorsOrHigher: 10, Color: "#edf8e9", Bucket: 0, HasData: true},
		{FIPS: 1003, AreaName: "Baldwin County", State: "AL", BachelorsOrHigher: 70, Color: "#006d2c", Bucket: 5, HasData: true},
		{FIPS: 1005, Color: "#edf8e9", Bucket: 0},
	}
	if diff := cmp.Diff(want, exp.counties); diff != "" {
		t.Errorf("exported counties mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Run_FetchFailureAbortsRender(t *testing.T) {
	for name, ldr := range map[string]*mockLoader{
		"topology":  {topoErr: errors.New("topology 503"), records: testRecords()},
		"education": {eduErr: errors.New("education 404")},
	} {
		t.Run(name, func(t *testing.T) {
			exp := &mockExporter{}
			r := &countingRenderer{inner: render.New()}
			p := newTestPipeline(ldr, r, exp)

			var page bytes.Buffer
			err := p.Run(context.Background(), &page)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "load datasets")

			assert.False(t, p.Ready())
			require.Error(t, p.CheckReadiness(context.Background()))
			assert.Zero(t, r.calls)
			assert.Zero(t, page.Len())
			assert.Nil(t, exp.counties)
		})
	}
}

func TestPipeline_Run_ExportErrorStillReady(t *testing.T) {
	exp := &mockExporter{err: errors.New("broker down")}
	p := newTestPipeline(&mockLoader{records: testRecords()}, render.New(), exp)

	require.NoError(t, p.Run(context.Background(), nil))
	assert.True(t, p.Ready())
}

func TestPipeline_Run_NoRecords(t *testing.T) {
	p := newTestPipeline(&mockLoader{}, render.New(), nil)

	err := p.Run(context.Background(), io.Discard)
	require.ErrorIs(t, err, domain.ErrNoValues)
	assert.False(t, p.Ready())
}

func TestPipeline_Render_NotLoaded(t *testing.T) {
	p := newTestPipeline(&mockLoader{}, render.New(), nil)
	err := p.Render(io.Discard, domain.DefaultPalette())
	require.ErrorIs(t, err, pipeline.ErrNotLoaded)
}

func TestPipeline_Render_CachesPerPalette(t *testing.T) {
	r := &countingRenderer{inner: render.New()}
	p := newTestPipeline(&mockLoader{records: testRecords()}, r, nil)
	require.NoError(t, p.Run(context.Background(), nil))
	assert.Equal(t, 1, r.calls)

	blues, err := domain.PaletteFor("blues", 3)
	require.NoError(t, err)

	var first, second bytes.Buffer
	require.NoError(t, p.Render(&first, blues))
	require.NoError(t, p.Render(&second, blues))
	assert.Equal(t, 2, r.calls, "second blues render is served from cache")
	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), `<meta name="palette" content="blues-3">`)

	require.NoError(t, p.Render(io.Discard, p.DefaultPalette()))
	assert.Equal(t, 2, r.calls, "default palette was cached by Run")
}

func TestPipeline_Run_ContextCancelled(t *testing.T) {
	ldr := &mockLoader{topoErr: context.Canceled}
	p := newTestPipeline(ldr, render.New(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func ExamplePipeline_Render() {
	p := newTestPipeline(&mockLoader{records: testRecords()}, render.New(), nil)
	if err := p.Run(context.Background(), nil); err != nil {
		fmt.Println(err)
		return
	}
	var buf bytes.Buffer
	_ = p.Render(&buf, p.DefaultPalette())
	fmt.Println(strings.Count(buf.String(), `class="county"`))
	// Output: 3
}
