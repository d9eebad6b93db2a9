package transfer

// Observer receives per-object events as a run progresses. The engine
// calls it from worker goroutines, so implementations must be safe for
// concurrent use.
type Observer interface {
	TransferStarted(key string, size int64)
	Transferred(key string, size int64)
	Skipped(key string)
	Failed(key string, err error)
	IntegrityMismatch(key, etag, digest string)
	ExistsCheckFailed(key string, err error)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) TransferStarted(string, int64)            {}
func (NopObserver) Transferred(string, int64)                {}
func (NopObserver) Skipped(string)                           {}
func (NopObserver) Failed(string, error)                     {}
func (NopObserver) IntegrityMismatch(string, string, string) {}
func (NopObserver) ExistsCheckFailed(string, error)          {}
