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

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorse-io/seqrec/base/log"
	"github.com/gorse-io/seqrec/config"
	"github.com/gorse-io/seqrec/sampler"
	"github.com/gorse-io/seqrec/storage/meta"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sampleCmd = &cobra.Command{
	Use:   "sample [dataset]",
	Short: "Generate training batches with negative sampling",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name, err := datasetName(cfg, args)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Sampler.Seed, _ = cmd.Flags().GetInt64("seed")
		}
		numBatches, _ := cmd.Flags().GetInt("batches")
		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			go serveMetrics(addr)
		}

		partition, err := loadPartition(cfg, name, false, true)
		if err != nil {
			return errors.Trace(err)
		}
		s, err := sampler.NewSampler(partition.Train, partition.Disliked, partition.UserNum, cfg.Sampler.MaxLen,
			negativePolicy(cfg.Sampler, partition.ItemNum))
		if err != nil {
			return errors.Trace(err)
		}
		warp := sampler.NewWarpSampler(s, sampler.WarpConfig{
			BatchSize:  cfg.Sampler.BatchSize,
			NumWorkers: cfg.Sampler.NumWorkers,
			Seed:       cfg.Sampler.Seed,
		})
		defer warp.Close()

		start := time.Now()
		var examples int
		for i := 0; i < numBatches; i++ {
			batch, err := nextBatch(cmd.Context(), warp, cfg.Sampler.BatchTimeout)
			if err != nil {
				return errors.Trace(err)
			}
			examples += batch.Len()
		}
		elapsed := time.Since(start)
		fmt.Printf("sampled %d batches (%d examples) in %v with seeds %v\n", numBatches, examples, elapsed, warp.Seeds())

		run := meta.NewRun(meta.RunSample, name)
		run.Seeds = warp.Seeds()
		run.Config = cfg.Sampler
		return recordRun(cfg, run)
	},
}

func init() {
	sampleCmd.Flags().IntP("batches", "n", 100, "number of batches to draw")
	sampleCmd.Flags().Int64("seed", 0, "seed of the worker seed generator")
	sampleCmd.Flags().String("metrics-addr", "", "address to serve Prometheus metrics, e.g. :9090")
}

func negativePolicy(cfg config.SamplerConfig, itemNum int32) sampler.NegativePolicy {
	return sampler.NegativePolicy{
		ItemNum:    itemNum,
		Explicit:   cfg.ExplicitNegatives,
		PDislike:   cfg.PDislike,
		WDislike:   cfg.WDislike,
		MaxRetries: cfg.MaxRetries,
	}
}

// nextBatch waits for a batch, at most timeout if it is positive.
func nextBatch(ctx context.Context, warp *sampler.WarpSampler, timeout time.Duration) (*sampler.Batch, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return warp.NextBatch(ctx)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Logger().Info("start metrics server", zap.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Logger().Error("failed to serve metrics", zap.Error(err))
	}
}
