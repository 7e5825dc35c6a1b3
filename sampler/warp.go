// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sampler

import (
	"context"
	"sync"

	"github.com/gorse-io/seqrec/base"
	"github.com/gorse-io/seqrec/base/log"
	"github.com/juju/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize  = 64
	DefaultNumWorkers = 1
	// QueueFactor is the number of batches each worker may keep queued.
	QueueFactor = 10
)

type WarpConfig struct {
	BatchSize  int
	NumWorkers int
	Seed       int64
}

// WarpSampler runs batch producers in goroutines and delivers their batches
// through a bounded queue. Producers block while the queue is full.
type WarpSampler struct {
	batches chan *Batch
	seeds   []int64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	failed   chan struct{}
	failOnce sync.Once
	failErr  error

	produced *atomic.Int64
	failures *atomic.Int32
}

// NewWarpSampler starts the workers. Every worker gets an explicit seed drawn
// from a generator seeded by cfg.Seed, so a run is reproducible from Seeds().
func NewWarpSampler(s *Sampler, cfg WarpConfig) *WarpSampler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = DefaultNumWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &WarpSampler{
		batches:  make(chan *Batch, cfg.NumWorkers*QueueFactor),
		seeds:    base.NewRandomGenerator(cfg.Seed).Seeds(cfg.NumWorkers),
		ctx:      ctx,
		cancel:   cancel,
		failed:   make(chan struct{}),
		produced: atomic.NewInt64(0),
		failures: atomic.NewInt32(0),
	}
	for workerId, seed := range w.seeds {
		w.wg.Go(func() {
			w.work(workerId, NewBatchProducer(s, seed), cfg.BatchSize)
		})
	}
	log.Logger().Info("start sampler",
		zap.Int("n_workers", cfg.NumWorkers),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int64s("seeds", w.seeds))
	return w
}

func (w *WarpSampler) work(workerId int, producer *BatchProducer, batchSize int) {
	for w.ctx.Err() == nil {
		batch, err := producer.Next(batchSize)
		if err != nil {
			log.Logger().Error("sampler worker failed", zap.Int("worker_id", workerId), zap.Error(err))
			WorkerFailures.Inc()
			w.failures.Inc()
			w.failOnce.Do(func() {
				w.failErr = errors.Annotatef(err, "sampler worker %d", workerId)
				close(w.failed)
			})
			return
		}
		select {
		case w.batches <- batch:
			w.produced.Inc()
			BatchesProduced.Inc()
			PendingBatches.Inc()
		case <-w.ctx.Done():
			return
		}
	}
}

// NextBatch blocks until a batch is ready. It fails if the sampler is closed,
// the context ends or a worker has failed.
func (w *WarpSampler) NextBatch(ctx context.Context) (*Batch, error) {
	if w.ctx.Err() != nil {
		return nil, errors.Trace(ErrClosed)
	}
	select {
	case batch := <-w.batches:
		PendingBatches.Dec()
		return batch, nil
	case <-w.failed:
		return nil, w.failErr
	case <-w.ctx.Done():
		return nil, errors.Trace(ErrClosed)
	case <-ctx.Done():
		return nil, errors.Trace(ctx.Err())
	}
}

// Close stops all workers and waits for them. Queued batches are discarded.
func (w *WarpSampler) Close() {
	w.closeOnce.Do(func() {
		w.cancel()
		w.wg.Wait()
		PendingBatches.Sub(float64(len(w.batches)))
		log.Logger().Info("stop sampler", zap.Int64("n_batches", w.produced.Load()))
	})
}

// Seeds returns the seed of every worker.
func (w *WarpSampler) Seeds() []int64 {
	return w.seeds
}

// Pending returns the number of queued batches.
func (w *WarpSampler) Pending() int {
	return len(w.batches)
}

// Capacity returns the size of the delivery queue.
func (w *WarpSampler) Capacity() int {
	return cap(w.batches)
}

// Produced returns the number of batches delivered to the queue.
func (w *WarpSampler) Produced() int64 {
	return w.produced.Load()
}

// Failures returns the number of failed workers.
func (w *WarpSampler) Failures() int32 {
	return w.failures.Load()
}
