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

package evaluator

import (
	"context"
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/seqrec/base"
	"github.com/gorse-io/seqrec/base/log"
	"github.com/gorse-io/seqrec/common/parallel"
	"github.com/gorse-io/seqrec/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// KEval is the default cutoff of ranking metrics.
const KEval = 10

const (
	DefaultNumNegatives = 100
	DefaultMaxRetries   = 1 << 16
)

// Predictor scores candidate items for a user given the context window. One
// score is returned per candidate and candidates with higher scores rank first.
type Predictor interface {
	Predict(ctx context.Context, user int32, window []int32, candidates []int32) ([]float32, error)
}

type Mode string

const (
	ModeTest  Mode = "test"
	ModeValid Mode = "valid"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTest, ModeValid:
		return Mode(s), nil
	default:
		return "", errors.NotValidf("evaluation mode %q", s)
	}
}

type Config struct {
	MaxLen int
	// WeightedDislike and ExplicitNegatives both restrict positives to liked items.
	WeightedDislike   bool
	ExplicitNegatives bool
	TopK              int
	NumNegatives      int
	Jobs              int
	Seed              int64
	MaxRetries        int
}

func (cfg Config) withDefaults() Config {
	if cfg.TopK <= 0 {
		cfg.TopK = KEval
	}
	if cfg.NumNegatives <= 0 {
		cfg.NumNegatives = DefaultNumNegatives
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return cfg
}

// Score is the mean of per-user metrics over evaluated users.
type Score struct {
	NDCG      float32 `json:"ndcg"`
	Precision float32 `json:"precision"`
	Recall    float32 `json:"recall"`
	HR        float32 `json:"hr"`
	MRR       float32 `json:"mrr"`
	Users     int     `json:"users"`
}

func (s Score) String() string {
	return fmt.Sprintf("NDCG = %.4f, Precision = %.4f, Recall = %.4f (%d users)", s.NDCG, s.Precision, s.Recall, s.Users)
}

type partialScore struct {
	ndcg, precision, recall, hr, mrr float64
	users                            int
}

// Evaluate ranks held-out items of every user in the test (or validation)
// segment against sampled negatives and averages the ranking metrics. Users
// without train items or without positives are skipped.
func Evaluate(ctx context.Context, model Predictor, split *dataset.Split, cfg Config, mode Mode, liked *dataset.UserSequences) (Score, error) {
	cfg = cfg.withDefaults()
	split = split.Clone()
	var heldOut *dataset.UserSequences
	switch mode {
	case ModeTest:
		heldOut = split.Test
	case ModeValid:
		heldOut = split.Valid
	default:
		return Score{}, errors.NotValidf("evaluation mode %q", mode)
	}
	users := heldOut.Users()
	likedOnly := (cfg.WeightedDislike || cfg.ExplicitNegatives) && liked != nil

	partial := make([]partialScore, cfg.Jobs)
	err := parallel.Parallel(ctx, len(users), cfg.Jobs, func(workerId, jobId int) error {
		user := users[jobId]
		positives := heldOut.Get(user)
		if likedOnly {
			likedSet := mapset.NewThreadUnsafeSet(liked.Get(user)...)
			positives = lo.Filter(positives, func(item int32, _ int) bool {
				return likedSet.Contains(item)
			})
		}
		train := split.Train.Get(user)
		if len(train) == 0 || len(positives) == 0 {
			return nil
		}

		var window []int32
		rated := bitset.New(uint(split.ItemNum) + 1)
		for _, item := range train {
			rated.Set(uint(item))
		}
		if mode == ModeTest {
			window = dataset.ContextWindow(cfg.MaxLen, train, split.Valid.Get(user))
			for _, item := range split.Valid.Get(user) {
				rated.Set(uint(item))
			}
		} else {
			window = dataset.ContextWindow(cfg.MaxLen, train)
		}
		for _, item := range positives {
			rated.Set(uint(item))
		}

		rng := base.NewRandomGenerator(cfg.Seed + int64(user))
		candidates := make([]int32, 0, len(positives)+cfg.NumNegatives)
		candidates = append(candidates, positives...)
		for range cfg.NumNegatives {
			neg, ok := drawNegative(rng, rated, split.ItemNum, cfg.MaxRetries)
			if !ok {
				break
			}
			rated.Set(uint(neg))
			candidates = append(candidates, neg)
		}

		scores, err := model.Predict(ctx, user, window, candidates)
		if err != nil {
			return errors.Annotatef(err, "predict user %d", user)
		}
		if len(scores) != len(candidates) {
			return errors.Errorf("predict user %d: expect %d scores but got %d", user, len(candidates), len(scores))
		}
		rankList := Rank(candidates, scores, cfg.TopK)

		ndcg, precision, recall := userMetrics(positives, rankList, cfg.TopK)
		targetSet := mapset.NewThreadUnsafeSet(positives...)
		p := &partial[workerId]
		p.ndcg += float64(ndcg)
		p.precision += float64(precision)
		p.recall += float64(recall)
		p.hr += float64(HR(targetSet, rankList))
		p.mrr += float64(MRR(targetSet, rankList))
		p.users++
		if jobId%100 == 0 {
			log.Logger().Debug("evaluate users", zap.String("mode", string(mode)), zap.Int("progress", jobId), zap.Int("total", len(users)))
		}
		return nil
	})
	if err != nil {
		return Score{}, errors.Trace(err)
	}

	var sum partialScore
	for _, p := range partial {
		sum.ndcg += p.ndcg
		sum.precision += p.precision
		sum.recall += p.recall
		sum.hr += p.hr
		sum.mrr += p.mrr
		sum.users += p.users
	}
	score := Score{Users: sum.users}
	if sum.users > 0 {
		n := float64(sum.users)
		score.NDCG = float32(sum.ndcg / n)
		score.Precision = float32(sum.precision / n)
		score.Recall = float32(sum.recall / n)
		score.HR = float32(sum.hr / n)
		score.MRR = float32(sum.mrr / n)
	}
	log.Logger().Info("evaluation finished",
		zap.String("mode", string(mode)),
		zap.Int("n_users", len(users)),
		zap.Int("n_evaluated", score.Users),
		zap.Float32("ndcg", score.NDCG),
		zap.Float32("precision", score.Precision),
		zap.Float32("recall", score.Recall))
	return score, nil
}

// Rank returns the top k candidates ordered by descending score. Ties keep
// the candidate order.
func Rank(candidates []int32, scores []float32, k int) []int32 {
	indices := make([]int, len(candidates))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return scores[indices[i]] > scores[indices[j]]
	})
	indices = indices[:min(k, len(indices))]
	return lo.Map(indices, func(i int, _ int) int32 {
		return candidates[i]
	})
}

// drawNegative draws an unrated item from [1, itemNum]. It falls back to a scan
// of unrated items after maxRetries rejections and reports false if none is left.
func drawNegative(rng base.RandomGenerator, rated *bitset.BitSet, itemNum int32, maxRetries int) (int32, bool) {
	if itemNum < 1 {
		return 0, false
	}
	for range maxRetries {
		item := rng.Int32Range(1, itemNum)
		if !rated.Test(uint(item)) {
			return item, true
		}
	}
	var candidates []int32
	for item := int32(1); item <= itemNum; item++ {
		if !rated.Test(uint(item)) {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return rng.Choice(candidates), true
}
