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

package model

import (
	"context"

	"github.com/gorse-io/seqrec/base"
	"github.com/gorse-io/seqrec/dataset"
)

/* Random */

// Random scores candidates uniformly at random. Scores of a user are
// reproducible for a fixed seed.
type Random struct {
	seed int64
}

// NewRandom creates a random model.
func NewRandom(seed int64) *Random {
	return &Random{seed: seed}
}

func (random *Random) Predict(_ context.Context, user int32, _ []int32, candidates []int32) ([]float32, error) {
	rng := base.NewRandomGenerator(random.seed + int64(user))
	scores := make([]float32, len(candidates))
	for i := range scores {
		scores[i] = rng.Float32()
	}
	return scores, nil
}

/* ItemPop */

// ItemPop recommends items by their popularity in the train segments.
type ItemPop struct {
	Pop []float32
}

// NewItemPop creates an ItemPop model.
func NewItemPop() *ItemPop {
	return &ItemPop{}
}

func (pop *ItemPop) Fit(train *dataset.UserSequences, itemNum int32) {
	pop.Pop = make([]float32, itemNum+1)
	for _, user := range train.Users() {
		for _, item := range train.Get(user) {
			if item > 0 && item <= itemNum {
				pop.Pop[item]++
			}
		}
	}
}

func (pop *ItemPop) Predict(_ context.Context, _ int32, _ []int32, candidates []int32) ([]float32, error) {
	scores := make([]float32, len(candidates))
	for i, item := range candidates {
		// Return items' popularity
		if item > 0 && int(item) < len(pop.Pop) {
			scores[i] = pop.Pop[item]
		}
	}
	return scores, nil
}
