package journal

import "expvar"

var (
	metricJournalWrittenTotal = expvar.NewInt("journal_written_total")
	metricJournalFailedTotal  = expvar.NewInt("journal_failed_total")
	metricJournalDroppedTotal = expvar.NewInt("journal_dropped_total")
	metricJournalQueueLen     = expvar.NewInt("journal_queue_len")
)
