package lock

import (
	"context"
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// Consul is an alternate distributed TaskLock backend (config.task_lock.backend
// = "consul") for deployments already running Consul for service discovery,
// reusing its session-backed KV locks instead of standing up etcd.
type Consul struct {
	client *consulapi.Client
	prefix string
}

// NewConsul constructs a Consul TaskLock over an already-connected client.
func NewConsul(client *consulapi.Client, prefix string) *Consul {
	if prefix == "" {
		prefix = "cogency/task-locks/"
	}
	return &Consul{client: client, prefix: prefix}
}

func (c *Consul) Acquire(ctx context.Context, taskID string) (Release, error) {
	l, err := c.client.LockOpts(&consulapi.LockOptions{
		Key: c.prefix + taskID,
	})
	if err != nil {
		return nil, fmt.Errorf("lock: build consul lock for %q: %w", taskID, err)
	}

	stopCh := make(chan struct{})
	leaderCh, err := l.Lock(stopCh)
	if err != nil {
		return nil, fmt.Errorf("lock: acquire consul lock for %q: %w", taskID, err)
	}
	if leaderCh == nil {
		close(stopCh)
		return nil, ErrAlreadyLocked
	}

	return func() {
		_ = l.Unlock()
		close(stopCh)
	}, nil
}
