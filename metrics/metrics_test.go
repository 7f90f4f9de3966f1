package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/postcodes"
	"github.com/hupe1980/postcodes/blobstore"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterByLabel(f *dto.MetricFamily, label, value string) float64 {
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestPrometheusCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector("postcodes")
	require.NoError(t, p.Register(reg))

	// Registering twice fails.
	assert.Error(t, p.Register(reg))
}

func TestPrometheusCollector_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector("postcodes")
	require.NoError(t, p.Register(reg))

	p.RecordOpen(time.Millisecond, nil)
	p.RecordOpen(time.Millisecond, errors.New("boom"))
	p.RecordLookup(2, 3, time.Microsecond, nil)
	p.RecordLookup(1, 0, time.Microsecond, nil)
	p.RecordLookup(1, 0, time.Microsecond, errors.New("boom"))

	fams := gather(t, reg)

	opens := fams["postcodes_index_opens_total"]
	require.NotNil(t, opens)
	assert.Equal(t, 1.0, counterByLabel(opens, "status", "ok"))
	assert.Equal(t, 1.0, counterByLabel(opens, "status", "error"))

	lookups := fams["postcodes_lookups_total"]
	require.NotNil(t, lookups)
	assert.Equal(t, 1.0, counterByLabel(lookups, "result_type", "hit"))
	assert.Equal(t, 1.0, counterByLabel(lookups, "result_type", "zero_result"))
	assert.Equal(t, 1.0, counterByLabel(lookups, "result_type", "error"))

	latency := fams["postcodes_lookup_latency_seconds"]
	require.NotNil(t, latency)
	assert.Equal(t, uint64(3), latency.GetMetric()[0].GetHistogram().GetSampleCount())

	results := fams["postcodes_lookup_results_count"]
	require.NotNil(t, results)
	assert.Equal(t, 3.0, results.GetMetric()[0].GetHistogram().GetSampleSum())
}

func TestPrometheusCollector_WithIndex(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector("pc")
	require.NoError(t, p.Register(reg))

	b := postcodes.NewBuilder()
	_, err := b.AddPostcode("AA11 0", postcodes.Point{Lon: 1, Lat: 1})
	require.NoError(t, err)
	data, err := b.Bytes()
	require.NoError(t, err)

	idx, err := postcodes.Open(ctx, blobstore.NewBytesBlob(data), postcodes.WithMetricsCollector(p))
	require.NoError(t, err)
	_, err = idx.Search(ctx, "aa11 0")
	require.NoError(t, err)
	_, err = idx.Search(ctx, "zz")
	require.NoError(t, err)

	fams := gather(t, reg)
	assert.Equal(t, 1.0, counterByLabel(fams["pc_index_opens_total"], "status", "ok"))
	assert.Equal(t, 1.0, counterByLabel(fams["pc_lookups_total"], "result_type", "hit"))
	assert.Equal(t, 1.0, counterByLabel(fams["pc_lookups_total"], "result_type", "zero_result"))
}

func TestCacheCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCacheCollector("pc", "lru", func() (int64, int64) { return 7, 3 })))

	fams := gather(t, reg)
	hits := fams["pc_block_cache_hits_total"]
	require.NotNil(t, hits)
	assert.Equal(t, 7.0, counterByLabel(hits, "cache", "lru"))
	assert.Equal(t, 3.0, counterByLabel(fams["pc_block_cache_misses_total"], "cache", "lru"))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector("pc")
	require.NoError(t, p.Register(reg))
	p.RecordOpen(time.Millisecond, nil)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `pc_index_opens_total{status="ok"} 1`)
}
