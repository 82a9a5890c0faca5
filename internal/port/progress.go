package port

// ProgressEvent is one entry in the ordered, one-way stream of processing
// status events. A stream ends after the first event carrying Error or
// Complete.
type ProgressEvent struct {
	Progress    int    `json:"progress,omitempty"`
	Status      string `json:"status,omitempty"`
	Log         string `json:"log,omitempty"`
	SnapshotKey string `json:"repo_id,omitempty"`
	Error       string `json:"error,omitempty"`
	Complete    bool   `json:"complete,omitempty"`
}

// ProgressFunc receives progress events as computation proceeds. The producer
// never waits on the consumer; implementations must not block.
type ProgressFunc func(ProgressEvent)
