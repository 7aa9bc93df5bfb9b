package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileRemover deletes a stored upload path. Deleting a missing file succeeds.
type FileRemover interface {
	Delete(ctx context.Context, storedPath string) error
}

// CleanerOptions tunes FileCleaner
type CleanerOptions struct {
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	// Timeout bounds a single delete attempt
	Timeout time.Duration
}

// FileCleaner deletes upload files off the request path, retrying with backoff.
// Before Start and after Stop, Enqueue deletes inline.
type FileCleaner struct {
	remover FileRemover
	log     *zap.Logger
	opts    CleanerOptions

	mu      sync.RWMutex
	queue   chan string
	running bool
	wg      sync.WaitGroup
	sleep   func(time.Duration)
}

// NewFileCleaner builds a stopped cleaner
func NewFileCleaner(remover FileRemover, log *zap.Logger, opts CleanerOptions) *FileCleaner {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileCleaner{remover: remover, log: log, opts: opts, sleep: time.Sleep}
}

// Start launches the worker
func (c *FileCleaner) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.queue = make(chan string, c.opts.QueueSize)
	c.running = true
	c.wg.Add(1)
	go c.work(c.queue)
}

// Stop drains the queue and waits for the worker to finish
func (c *FileCleaner) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.queue)
	c.mu.Unlock()
	c.wg.Wait()
}

// Enqueue schedules paths for deletion. Empty paths are skipped.
// When the worker is not running or the queue is full the delete runs inline.
func (c *FileCleaner) Enqueue(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if !c.tryQueue(p) {
			c.remove(p)
		}
	}
}

func (c *FileCleaner) tryQueue(p string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.running {
		return false
	}
	select {
	case c.queue <- p:
		return true
	default:
		c.log.Warn("file cleaner queue full, deleting inline", zap.String("path", p))
		return false
	}
}

func (c *FileCleaner) work(queue <-chan string) {
	defer c.wg.Done()
	for p := range queue {
		c.remove(p)
	}
}

// remove retries with doubling backoff, failures are logged and dropped
func (c *FileCleaner) remove(p string) {
	backoff := c.opts.Backoff
	var err error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		err = c.remover.Delete(ctx, p)
		cancel()
		if err == nil {
			return
		}
		if attempt < c.opts.MaxAttempts {
			c.sleep(backoff)
			backoff *= 2
		}
	}
	c.log.Error("failed to delete file", zap.String("path", p), zap.Int("attempts", c.opts.MaxAttempts), zap.Error(err))
}
