package services

import (
	"context"
	"errors"
	"sync"
	"time"

	plog "produtivo/internal/log"
)

// Sweeper exports transactions that are not yet in the spreadsheet.
type Sweeper interface {
	ExportPending(ctx context.Context, limit int) (exported int, err error)
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to look for pending transactions (default: 1m)
	PollInterval time.Duration

	// BatchSize is the max number of transactions exported per poll (default: 20)
	BatchSize int
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    20,
	}
}

// SyncProcessor periodically exports pending transactions. It backs up the
// message queue: anything whose sync message was lost is picked up here.
type SyncProcessor struct {
	sweeper Sweeper
	config  SyncProcessorConfig
	log     *plog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(sweeper Sweeper, config SyncProcessorConfig, logger *plog.Logger) *SyncProcessor {
	if logger == nil {
		logger = plog.Discard()
	}
	defaults := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	return &SyncProcessor{
		sweeper: sweeper,
		config:  config,
		log:     logger.WithComponent(plog.ComponentWorker),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("sync processor is already running")
	}
	if p.sweeper == nil {
		p.mu.Unlock()
		return errors.New("sync processor has no sweeper")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.log.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for it, or for ctx.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.log.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		p.log.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	p.mu.Lock()
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()
	defer close(doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	p.processBatch(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *SyncProcessor) processBatch(ctx context.Context) {
	n, err := p.sweeper.ExportPending(ctx, p.config.BatchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "Pending sync sweep failed", plog.FieldError, err)
		return
	}
	if n > 0 {
		p.log.InfoContext(ctx, "Exported pending transactions", "count", n)
	}
}
