package indexer

import "github.com/prometheus/client_golang/prometheus"

var (
	passesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docdex_index_passes_total",
		Help: "Completed indexing passes over the source tree.",
	})
	docsIndexedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docdex_documents_indexed_total",
		Help: "Documents added to or replaced in the index.",
	})
	filesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docdex_files_skipped_total",
		Help: "Files skipped due to extraction or metadata failures.",
	})
)

func init() {
	prometheus.MustRegister(passesTotal, docsIndexedTotal, filesSkippedTotal)
}
