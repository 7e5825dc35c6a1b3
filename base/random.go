// Copyright 2020 gorse Project Authors
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

package base

import (
	"math/rand"
)

// RandomGenerator is the random generator for seqrec. It is not safe for
// concurrent use: every worker owns its own generator.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// Int32Range returns a uniform random id in [low, high].
func (rng RandomGenerator) Int32Range(low, high int32) int32 {
	return rng.Int31n(high-low+1) + low
}

// Choice returns a uniform random element of a non-empty slice.
func (rng RandomGenerator) Choice(a []int32) int32 {
	return a[rng.Intn(len(a))]
}

// ShuffleInt32 shuffles a slice in place.
func (rng RandomGenerator) ShuffleInt32(a []int32) {
	rng.Shuffle(len(a), func(i, j int) {
		a[i], a[j] = a[j], a[i]
	})
}

// Seeds draws n seeds for child generators.
func (rng RandomGenerator) Seeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63n(2e9)
	}
	return seeds
}

// RangeInt32 returns [low, high].
func RangeInt32(low, high int32) []int32 {
	if high < low {
		return nil
	}
	a := make([]int32, 0, high-low+1)
	for i := low; i <= high; i++ {
		a = append(a, i)
	}
	return a
}
