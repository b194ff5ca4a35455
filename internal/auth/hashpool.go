package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// HashPool runs bcrypt work on a fixed set of worker goroutines.
//
// WHY A POOL FOR HASHING?
// bcrypt is deliberately CPU-expensive (that's the point of it). Without a
// bound, a burst of register/login requests would spawn one bcrypt
// computation per request and starve every other goroutine of CPU time.
// The pool caps concurrent hashing at a fixed worker count: callers queue,
// workers grind, and unrelated requests keep getting scheduled.
//
// Each caller blocks only its own request goroutine while waiting for a
// result, and gives up early if its context is cancelled — a client that
// disconnects mid-login doesn't keep a slot reserved in the queue.
type HashPool struct {
	passwords *PasswordService
	logger    *slog.Logger
	jobs      chan hashJob
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// jobKind says what a worker should do with a job. An explicit field, not
// inferred from which strings happen to be empty — a verify against an
// empty hash must run the verify branch and fail, never hash instead.
type jobKind int

const (
	jobHash jobKind = iota
	jobVerify
)

// hashJob is one unit of work.
type hashJob struct {
	ctx        context.Context
	kind       jobKind
	plaintext  string
	verifyHash string
	result     chan hashResult
}

type hashResult struct {
	hash string
	err  error
}

// NewHashPool creates a pool with the given number of workers.
// A worker count equal to runtime.NumCPU() is a sensible default —
// bcrypt is pure CPU, so more workers than cores just adds contention.
func NewHashPool(passwords *PasswordService, workers int, logger *slog.Logger) *HashPool {
	if workers < 1 {
		workers = 1
	}
	p := &HashPool{
		passwords: passwords,
		logger:    logger,
		jobs:      make(chan hashJob),
		done:      make(chan struct{}),
	}
	p.startOnce.Do(func() {
		p.logger.Debug("starting password hash pool", slog.Int("workers", workers))
		for i := 0; i < workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
	return p
}

// Stop shuts the pool down and waits for in-flight work to finish.
// Calls to Hash/Verify after Stop fail immediately.
func (p *HashPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

// Hash computes a bcrypt hash on a pool worker.
func (p *HashPool) Hash(ctx context.Context, plaintext string) (string, error) {
	res, err := p.submit(ctx, hashJob{ctx: ctx, kind: jobHash, plaintext: plaintext})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Verify checks a plaintext password against a stored hash on a pool worker.
// Returns nil on match, an error otherwise — same contract as
// PasswordService.Verify. An empty stored hash can never match anything.
func (p *HashPool) Verify(ctx context.Context, hash, plaintext string) error {
	if hash == "" {
		return fmt.Errorf("auth: empty password hash")
	}
	res, err := p.submit(ctx, hashJob{ctx: ctx, kind: jobVerify, plaintext: plaintext, verifyHash: hash})
	if err != nil {
		return err
	}
	return res.err
}

// submit queues a job and waits for its result. The caller's context cuts
// both waits short: queueing AND waiting for the computation.
func (p *HashPool) submit(ctx context.Context, job hashJob) (hashResult, error) {
	job.result = make(chan hashResult, 1)

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return hashResult{}, fmt.Errorf("auth: hash request cancelled: %w", ctx.Err())
	case <-p.done:
		return hashResult{}, fmt.Errorf("auth: hash pool is shut down")
	}

	select {
	case res := <-job.result:
		return res, nil
	case <-ctx.Done():
		// The worker will still finish and send into the buffered channel;
		// nothing leaks, we just stop waiting.
		return hashResult{}, fmt.Errorf("auth: hash request cancelled: %w", ctx.Err())
	}
}

// worker grinds bcrypt jobs until the pool is stopped.
func (p *HashPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case job := <-p.jobs:
			// Skip work the caller no longer wants — a queued job whose
			// request already disconnected.
			if job.ctx.Err() != nil {
				job.result <- hashResult{err: fmt.Errorf("auth: hash request cancelled: %w", job.ctx.Err())}
				continue
			}

			switch job.kind {
			case jobVerify:
				job.result <- hashResult{err: p.passwords.Verify(job.verifyHash, job.plaintext)}
			default:
				hash, err := p.passwords.Hash(job.plaintext)
				job.result <- hashResult{hash: hash, err: err}
			}
		}
	}
}
