package transfer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/yuya-takeyama/s3-to-b2/internal/checksum"
	"github.com/yuya-takeyama/s3-to-b2/internal/store"
)

// Transferer runs the per-object transfer protocol between a source and
// a destination store.
type Transferer struct {
	src      store.ObjectStore
	dst      store.ObjectStore
	policy   Policy
	observer Observer
	now      func() time.Time
}

// New builds a Transferer. A nil observer is replaced with NopObserver.
func New(src, dst store.ObjectStore, policy Policy, observer Observer) *Transferer {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Transferer{
		src:      src,
		dst:      dst,
		policy:   policy,
		observer: observer,
		now:      time.Now,
	}
}

// transferOne executes the protocol for a single object: existence
// check, fetch, store, advisory verification, then source deletion when
// the run moves instead of copies. Every path ends in exactly one
// outcome; errors never escape.
func (t *Transferer) transferOne(ctx context.Context, obj store.Object) Outcome {
	if t.policy.SkipExisting {
		exists, err := t.dst.Exists(ctx, obj.Key)
		if err != nil {
			// An ambiguous probe must not cause a silent skip, so the
			// object is treated as absent and transferred.
			t.observer.ExistsCheckFailed(obj.Key, err)
			exists = false
		}
		if exists {
			t.observer.Skipped(obj.Key)
			return Outcome{Key: obj.Key, Status: StatusSkipped}
		}
	}

	t.observer.TransferStarted(obj.Key, obj.Size)

	blob, err := t.src.Fetch(ctx, obj.Key)
	if err != nil {
		t.observer.Failed(obj.Key, err)
		return Outcome{Key: obj.Key, Status: StatusFailed, Err: err}
	}

	if err := t.dst.Put(ctx, obj.Key, blob, t.stampMetadata(blob)); err != nil {
		t.observer.Failed(obj.Key, err)
		return Outcome{Key: obj.Key, Status: StatusFailed, Err: err}
	}

	var warning string
	if t.policy.Verify && blob.ETag != "" {
		digest := checksum.CalculateMD5(blob.Data)
		if !checksum.Match(blob.ETag, digest) {
			warning = fmt.Sprintf("etag %s does not match body md5 %s", blob.ETag, digest)
			t.observer.IntegrityMismatch(obj.Key, blob.ETag, digest)
		}
	}

	if t.policy.Move {
		// Deletion only after the destination write succeeded. A failed
		// delete leaves the object in both stores and marks the outcome
		// failed so the operator knows to clean up.
		if err := t.src.Remove(ctx, obj.Key); err != nil {
			t.observer.Failed(obj.Key, err)
			return Outcome{Key: obj.Key, Status: StatusFailed, Err: err, Warning: warning}
		}
	}

	t.observer.Transferred(obj.Key, int64(len(blob.Data)))
	return Outcome{
		Key:     obj.Key,
		Status:  StatusTransferred,
		Bytes:   int64(len(blob.Data)),
		Warning: warning,
	}
}

// stampMetadata builds the file info recorded with every stored object
// so migrated data stays traceable to its origin.
func (t *Transferer) stampMetadata(blob *store.Blob) map[string]string {
	return map[string]string{
		"src":            "s3",
		"s3_etag":        blob.ETag,
		"transferred_at": strconv.FormatInt(t.now().Unix(), 10),
	}
}
