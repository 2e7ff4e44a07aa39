package application

// IngestMetrics receives the outcome of every upload attempt
type IngestMetrics interface {
	ObserveUpload(status string, accepted, duplicates, rejected int)
}

// NopMetrics discards observations
type NopMetrics struct{}

func (NopMetrics) ObserveUpload(string, int, int, int) {}
