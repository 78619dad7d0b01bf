package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Snapshot is the current value of the search counters of this process
type Snapshot struct {
	QueryHits          uint64 `json:"query_cache_hits"`
	QueryMisses        uint64 `json:"query_cache_misses"`
	RawHits            uint64 `json:"raw_cache_hits"`
	RawMisses          uint64 `json:"raw_cache_misses"`
	UpstreamOK         uint64 `json:"upstream_ok"`
	UpstreamErrors     uint64 `json:"upstream_errors"`
	MalformedResponses uint64 `json:"malformed_responses"`
}

// TakeSnapshot reads the search counters
func TakeSnapshot() Snapshot {
	return Snapshot{
		QueryHits:          counterValue(CacheLookups.WithLabelValues("query", "hit")),
		QueryMisses:        counterValue(CacheLookups.WithLabelValues("query", "miss")),
		RawHits:            counterValue(CacheLookups.WithLabelValues("raw", "hit")),
		RawMisses:          counterValue(CacheLookups.WithLabelValues("raw", "miss")),
		UpstreamOK:         counterValue(UpstreamRequests.WithLabelValues("ok")),
		UpstreamErrors:     counterValue(UpstreamRequests.WithLabelValues("error")),
		MalformedResponses: counterValue(MalformedResponses),
	}
}

func counterValue(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil || m.Counter == nil {
		return 0
	}
	return uint64(m.Counter.GetValue())
}
