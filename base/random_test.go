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
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Int32Range(t *testing.T) {
	rng := NewRandomGenerator(0)
	seen := mapset.NewSet[int32]()
	for i := 0; i < 1000; i++ {
		v := rng.Int32Range(1, 5)
		assert.GreaterOrEqual(t, v, int32(1))
		assert.LessOrEqual(t, v, int32(5))
		seen.Add(v)
	}
	assert.Equal(t, 5, seen.Cardinality())
}

func TestRandomGenerator_ShuffleInt32(t *testing.T) {
	rng := NewRandomGenerator(0)
	a := RangeInt32(1, 100)
	rng.ShuffleInt32(a)
	assert.ElementsMatch(t, RangeInt32(1, 100), a)
	assert.NotEqual(t, RangeInt32(1, 100), a)
}

func TestRandomGenerator_Seeds(t *testing.T) {
	a := NewRandomGenerator(42).Seeds(4)
	b := NewRandomGenerator(42).Seeds(4)
	assert.Equal(t, a, b)
	assert.Len(t, a, 4)
	for _, seed := range a {
		assert.Less(t, seed, int64(2e9))
	}
}

func TestRangeInt32(t *testing.T) {
	assert.Equal(t, []int32{1, 2, 3}, RangeInt32(1, 3))
	assert.Empty(t, RangeInt32(1, 0))
}
