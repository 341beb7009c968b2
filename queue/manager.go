package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

const defaultManagerPoolSize = 8

// Manager owns a set of workers and runs their loops on a shared goroutine
// pool. Start launches every registered worker; Stop cancels them and waits
// for in-flight jobs to finish.
type Manager struct {
	pool    *ants.Pool
	workers []*Worker
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	poolSize int
	logger   *slog.Logger
}

// WithPoolSize sets the size of the shared goroutine pool.
func WithPoolSize(size int) ManagerOption {
	return func(c *managerConfig) {
		c.poolSize = size
	}
}

// WithManagerLogger sets the manager's logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// NewManager creates a worker manager with its own ants pool.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	cfg := &managerConfig{
		poolSize: defaultManagerPoolSize,
		logger:   slog.Default().With("component", "worker-manager"),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := ants.NewPool(cfg.poolSize)
	if err != nil {
		return nil, err
	}

	return &Manager{
		pool:   pool,
		logger: cfg.logger,
	}, nil
}

// Add registers a worker. Must be called before Start.
func (m *Manager) Add(worker *Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, worker)
}

// Start launches every registered worker loop on the pool. The loops run
// until Stop is called or the parent context is canceled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New("worker manager already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.started = true

	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		if err := m.pool.Submit(func() {
			defer m.wg.Done()
			w.Run(runCtx)
		}); err != nil {
			m.wg.Done()
			cancel()
			return err
		}
	}

	m.logger.Info("worker manager started", "workers", len(m.workers))
	return nil
}

// Stop cancels all worker loops, waits for them to drain, and releases the
// pool. Safe to call once after Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.pool.Release()
	m.logger.Info("worker manager stopped")
}
