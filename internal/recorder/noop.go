package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDigest(_ *DigestRecord) error            { return nil }
func (n *NoopRecorder) RecordAlert(_ *AlertRecord) error              { return nil }
func (n *NoopRecorder) RecentDigests(_ int) ([]DigestRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                  { return nil }
