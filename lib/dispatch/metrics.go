package dispatch

import (
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/logicbridge/lib/envelope"
	"github.com/VictoriaMetrics/metrics"
)

var asyncInflight atomic.Int64

func init() {
	metrics.NewGauge("logic_async_inflight", func() float64 {
		return float64(asyncInflight.Load())
	})
}

func callsTotal(kind envelope.Kind, c envelope.Case) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`logic_calls_total{mode=%q,case=%q}`, kind, c))
}

func callErrorsTotal(kind envelope.Kind, code Code) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`logic_call_errors_total{mode=%q,code=%q}`, kind, code))
}

func callDuration(kind envelope.Kind) *metrics.Histogram {
	return metrics.GetOrCreateHistogram(fmt.Sprintf(`logic_call_duration_seconds{mode=%q}`, kind))
}

func memoizedFallbacksTotal(c envelope.Case) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`logic_memoized_fallbacks_total{case=%q}`, c))
}
