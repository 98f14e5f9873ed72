package classpath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	digest "github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/classpath/cache/disk"
)

const defaultDirPerm = 0o700

// Transformer instruments classpath entries with a Policy and caches the
// results. It is safe for concurrent use.
type Transformer struct {
	policy      Policy
	configHash  digest.Digest
	logger      *slog.Logger
	lockTimeout time.Duration
	dirPerm     os.FileMode
	group       singleflight.Group // zero value is valid
}

// New creates a Transformer for policy.
func New(policy Policy, opts ...Option) (*Transformer, error) {
	if policy == nil {
		return nil, errors.New("classpath: policy is nil")
	}
	t := &Transformer{
		policy:  policy,
		dirPerm: defaultDirPerm,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.configHash = configurationHash(policy)
	return t, nil
}

// ConfigurationHash returns the hash of the transformer's configuration.
// Cache keys are derived from it and a source's content hash.
func (t *Transformer) ConfigurationHash() digest.Digest {
	return t.configHash
}

// log returns the logger, falling back to a discard logger if nil.
func (t *Transformer) log() *slog.Logger {
	if t.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.logger
}

// Transform returns the path of the instrumented JAR for src, producing it
// under cacheRoot if no complete artifact exists yet.
//
// The returned artifact is complete and never modified afterwards. Failures
// of the cache itself wrap ErrUnrecoverable; failures on one entry of src are
// reported as *EntryError. No artifact is recorded as complete after a
// failure, so a later call retries.
//
// ctx bounds the wait for another holder of the entry's lock and for a
// concurrent call producing the same artifact. A call sharing another
// caller's work is not failed by that caller's context.
func (t *Transformer) Transform(ctx context.Context, src Source, cacheRoot string) (string, error) {
	kind, err := src.resolve()
	if err != nil {
		return "", err
	}
	c, err := disk.New(cacheRoot, disk.WithDirPerm(t.dirPerm))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnrecoverable, err)
	}
	key := t.cacheKey(src.Hash)
	entry, err := c.Entry(key.Encoded(), artifactName(src.Path, kind))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	// Most calls are hits; skip locking when the receipt is already there.
	if entry.Complete() {
		return entry.Artifact, nil
	}

	for {
		var ran bool
		ch := t.group.DoChan(entry.Artifact, func() (any, error) {
			ran = true
			return nil, t.produce(ctx, src.Path, kind, entry)
		})
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: wait for instrumented classpath file %s: %w", ErrUnrecoverable, entry.Artifact, ctx.Err())
		case res := <-ch:
			if res.Err == nil {
				return entry.Artifact, nil
			}
			// A joined call failed on the leader's context, not ours.
			if !ran && ctx.Err() == nil && isContextError(res.Err) {
				continue
			}
			return "", res.Err
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// produce transforms src into entry while holding the entry's lock.
func (t *Transformer) produce(ctx context.Context, src string, kind Kind, entry *disk.Entry) error {
	if err := entry.Prepare(); err != nil {
		return fmt.Errorf("%w: create cache entry %s: %w", ErrUnrecoverable, entry.Dir, err)
	}

	lockCtx := ctx
	if t.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, t.lockTimeout)
		defer cancel()
	}
	lock, err := entry.Acquire(lockCtx)
	if err != nil {
		return fmt.Errorf("%w: lock instrumented classpath file %s: %w", ErrUnrecoverable, entry.Artifact, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			t.log().Warn("release cache lock", "lock", entry.Lock, "error", err)
		}
	}()

	if entry.Complete() {
		t.log().Debug("artifact completed by another holder", "artifact", entry.Artifact)
		return nil
	}

	start := time.Now()
	p, err := t.selectPlan(src, kind)
	if err != nil {
		return err
	}
	if err := p.run(entry); err != nil {
		return err
	}
	if err := entry.CreateReceipt(); err != nil {
		return fmt.Errorf("%w: create receipt for instrumented classpath file %s: %w", ErrUnrecoverable, entry.Artifact, err)
	}
	t.log().Debug("transformed classpath entry",
		"source", src,
		"artifact", entry.Artifact,
		"plan", p.String(),
		"duration", time.Since(start),
	)
	return nil
}
