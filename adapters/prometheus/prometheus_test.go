package prometheus

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llxisdsh/hashlink"
)

func TestCollector(t *testing.T) {
	c := hashlink.NewSyncLRU[string, int](2, nil)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3) // evicts a

	c.Get("b")
	c.Get("a")
	_, err := c.GetOrLoad("d", func() (int, error) { return 4, nil })
	require.NoError(t, err)
	_, err = c.GetOrLoad("e", func() (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)

	reg := prometheus.NewPedanticRegistry()
	col := MustRegister(reg, "users", c)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range mfs {
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		require.Len(t, m.GetLabel(), 1)
		assert.Equal(t, "cache", m.GetLabel()[0].GetName())
		assert.Equal(t, "users", m.GetLabel()[0].GetValue())
		if m.GetCounter() != nil {
			values[mf.GetName()] = m.GetCounter().GetValue()
		} else {
			values[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	// b hit; a, d, e missed; d and e loaded
	assert.Equal(t, float64(1), values["hashlink_lru_hits_total"])
	assert.Equal(t, float64(3), values["hashlink_lru_misses_total"])
	assert.Equal(t, float64(2), values["hashlink_lru_loads_total"])
	assert.Equal(t, float64(1), values["hashlink_lru_load_errors_total"])
	assert.Equal(t, float64(2), values["hashlink_lru_evictions_total"])
	assert.Equal(t, float64(2), values["hashlink_lru_entries"])
	assert.Equal(t, float64(2), values["hashlink_lru_capacity"])

	assert.Equal(t, 7, testutil.CollectAndCount(col))
}

func TestCollectorSeparateCaches(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg, "a", hashlink.NewSyncLRU[int, int](1, nil))
	MustRegister(reg, "b", hashlink.NewSyncLRU[int, int](8, nil))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.Len(t, mf.GetMetric(), 2, mf.GetName())
	}
}
