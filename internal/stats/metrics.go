package stats

import "expvar"

var (
	metricTickRate            = expvar.NewFloat("node_tick_rate")
	metricTickRateAvg         = expvar.NewFloat("node_tick_rate_avg")
	metricMemoryUsedPct       = expvar.NewFloat("node_memory_used_pct")
	metricSessionsHostedTotal = expvar.NewInt("node_sessions_hosted_total")
	metricPlayersTotal        = expvar.NewInt("node_players_connected_total")
	metricHealthFailedTotal   = expvar.NewInt("node_health_check_failed_total")
)
