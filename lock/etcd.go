package lock

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

// Etcd is the distributed TaskLock backend (config.task_lock.backend =
// "etcd"), for deployments running more than one engine process against a
// shared store, where InProcess's sync.Map cannot coordinate across hosts.
type Etcd struct {
	client *clientv3.Client
	prefix string
}

// NewEtcd constructs an Etcd TaskLock over an already-connected client,
// namespacing lock keys under prefix (e.g. "/cogency/task-locks/").
func NewEtcd(client *clientv3.Client, prefix string) *Etcd {
	if prefix == "" {
		prefix = "/cogency/task-locks/"
	}
	return &Etcd{client: client, prefix: prefix}
}

// Acquire takes a session-scoped etcd mutex for taskID. The returned
// Release also closes the backing session.
func (e *Etcd) Acquire(ctx context.Context, taskID string) (Release, error) {
	session, err := concurrency.NewSession(e.client, concurrency.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("lock: open etcd session: %w", err)
	}

	mu := concurrency.NewMutex(session, e.prefix+taskID)
	if err := mu.TryLock(ctx); err != nil {
		_ = session.Close()
		if err == concurrency.ErrLocked {
			return nil, ErrAlreadyLocked
		}
		return nil, fmt.Errorf("lock: acquire etcd lock for %q: %w", taskID, err)
	}

	return func() {
		_ = mu.Unlock(context.Background())
		_ = session.Close()
	}, nil
}
