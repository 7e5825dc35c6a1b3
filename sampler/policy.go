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
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/seqrec/base"
	"github.com/juju/errors"
)

var (
	ErrSamplingExhausted = errors.New("no eligible item left to sample")
	ErrNoTrainableUser   = errors.New("no user has more than one train item")
	ErrClosed            = errors.New("sampler closed")
)

// DefaultMaxRetries bounds rejection sampling before falling back to a full scan.
const DefaultMaxRetries = 1 << 16

const (
	DefaultPDislike float64 = 0.5
	DefaultWDislike float32 = 2.0
)

// NegativePolicy draws one negative item for a user. With explicit negatives
// enabled, a disliked item is substituted with probability PDislike and weighted
// by WDislike. Otherwise an item is drawn uniformly from [1, ItemNum] outside both
// the train set and the disliked items.
type NegativePolicy struct {
	ItemNum    int32
	Explicit   bool
	PDislike   float64
	WDislike   float32
	MaxRetries int
}

func (p NegativePolicy) maxRetries() int {
	if p.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return p.MaxRetries
}

// Draw returns a negative item and its weight.
func (p NegativePolicy) Draw(rng base.RandomGenerator, train mapset.Set[int32], disliked []int32) (int32, float32, error) {
	if p.Explicit && len(disliked) > 0 && rng.Float64() < p.PDislike {
		NegativesDrawn.WithLabelValues(KindDisliked).Inc()
		return rng.Choice(disliked), p.WDislike, nil
	}
	if p.ItemNum < 1 {
		return 0, 0, errors.Trace(ErrSamplingExhausted)
	}
	excluded := func(item int32) bool {
		return train.Contains(item) || slices.Contains(disliked, item)
	}
	for range p.maxRetries() {
		item := rng.Int32Range(1, p.ItemNum)
		if !excluded(item) {
			NegativesDrawn.WithLabelValues(KindUniform).Inc()
			return item, 1, nil
		}
	}
	// The exclusion set covers nearly the whole item space.
	var candidates []int32
	for item := int32(1); item <= p.ItemNum; item++ {
		if !excluded(item) {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return 0, 0, errors.Trace(ErrSamplingExhausted)
	}
	NegativesDrawn.WithLabelValues(KindFallback).Inc()
	return rng.Choice(candidates), 1, nil
}
