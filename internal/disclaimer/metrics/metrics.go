package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ResolutionsTotal     prometheus.Counter
	MatchesTotal         prometheus.Counter
	MissingTemplateTotal prometheus.Counter
	RuleCacheHits        prometheus.Counter
	RuleCacheMisses      prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ResolutionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigclause_disclaimer_resolutions_total",
			Help: "Total number of disclaimer resolution passes",
		}),
		MatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigclause_disclaimer_matches_total",
			Help: "Total number of rule matches across all resolutions",
		}),
		MissingTemplateTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigclause_disclaimer_missing_template_total",
			Help: "Matched rules dropped because their template record was missing",
		}),
		RuleCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigclause_disclaimer_rule_cache_hits_total",
			Help: "Rule set loads served from the Redis cache",
		}),
		RuleCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigclause_disclaimer_rule_cache_misses_total",
			Help: "Rule set loads that fell through to PostgreSQL",
		}),
	}
}

func (m *Metrics) IncrementResolutions() {
	m.ResolutionsTotal.Inc()
}

func (m *Metrics) AddMatches(n int) {
	m.MatchesTotal.Add(float64(n))
}

func (m *Metrics) IncrementMissingTemplate() {
	m.MissingTemplateTotal.Inc()
}

func (m *Metrics) IncrementRuleCacheHits() {
	m.RuleCacheHits.Inc()
}

func (m *Metrics) IncrementRuleCacheMisses() {
	m.RuleCacheMisses.Inc()
}
