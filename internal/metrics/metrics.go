package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	ProviderRequests  *prometheus.CounterVec // label: result=ok|error
	ProviderLatency   prometheus.Histogram
	OffersScored      prometheus.Counter
	DigestsSent       prometheus.Counter
	DigestsSkipped    prometheus.Counter
	AlertsSent        prometheus.Counter
	NotifyFailures    prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	LastDigestScore   prometheus.Gauge
	ActiveSubscribers prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	providerRequests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "flights_provider_requests_total"}, []string{"result"})
	providerLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flights_provider_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	offersScored := prometheus.NewCounter(prometheus.CounterOpts{Name: "flights_offers_scored_total"})
	digestsSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "flights_digests_sent_total"})
	digestsSkipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "flights_digests_skipped_total"})
	alertsSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "flights_saved_search_alerts_total"})
	notifyFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "flights_notify_failures_total"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "flights_digest_cache_hits_total"})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "flights_digest_cache_misses_total"})
	lastScore := prometheus.NewGauge(prometheus.GaugeOpts{Name: "flights_last_digest_score"})
	activeSubs := prometheus.NewGauge(prometheus.GaugeOpts{Name: "flights_active_subscribers"})

	r.MustRegister(providerRequests, providerLatency, offersScored, digestsSent, digestsSkipped,
		alertsSent, notifyFailures, cacheHits, cacheMisses, lastScore, activeSubs)
	return &Registry{
		reg:               r,
		ProviderRequests:  providerRequests,
		ProviderLatency:   providerLatency,
		OffersScored:      offersScored,
		DigestsSent:       digestsSent,
		DigestsSkipped:    digestsSkipped,
		AlertsSent:        alertsSent,
		NotifyFailures:    notifyFailures,
		CacheHits:         cacheHits,
		CacheMisses:       cacheMisses,
		LastDigestScore:   lastScore,
		ActiveSubscribers: activeSubs,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
