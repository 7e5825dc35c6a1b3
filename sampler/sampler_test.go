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
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/seqrec/base"
	"github.com/gorse-io/seqrec/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrain() *dataset.UserSequences {
	train := dataset.NewUserSequences()
	train.Append(1, 1, 2, 3, 4, 5)
	train.Append(2, 6)
	train.Append(3, 7, 8, 9)
	train.Append(5, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22)
	return train
}

func TestNegativePolicyUniform(t *testing.T) {
	rng := base.NewRandomGenerator(0)
	policy := NegativePolicy{ItemNum: 20}
	train := mapset.NewThreadUnsafeSet[int32](1, 2, 3)
	disliked := []int32{4, 5}
	for range 1000 {
		item, weight, err := policy.Draw(rng, train, disliked)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, item, int32(1))
		assert.LessOrEqual(t, item, int32(20))
		assert.False(t, train.Contains(item))
		assert.NotContains(t, disliked, item)
		assert.Equal(t, float32(1), weight)
	}
}

func TestNegativePolicyExplicit(t *testing.T) {
	rng := base.NewRandomGenerator(0)
	policy := NegativePolicy{ItemNum: 20, Explicit: true, PDislike: 1, WDislike: DefaultWDislike}
	disliked := []int32{4, 5}
	for range 100 {
		item, weight, err := policy.Draw(rng, mapset.NewThreadUnsafeSet[int32](1), disliked)
		require.NoError(t, err)
		assert.Contains(t, disliked, item)
		assert.Equal(t, float32(2), weight)
	}

	// without disliked items the uniform branch is used
	item, weight, err := policy.Draw(rng, mapset.NewThreadUnsafeSet[int32](1), nil)
	require.NoError(t, err)
	assert.NotEqual(t, int32(1), item)
	assert.Equal(t, float32(1), weight)
}

func TestNegativePolicyFallback(t *testing.T) {
	rng := base.NewRandomGenerator(0)
	policy := NegativePolicy{ItemNum: 100, MaxRetries: 1}
	train := mapset.NewThreadUnsafeSet(base.RangeInt32(1, 98)...)
	for range 100 {
		item, _, err := policy.Draw(rng, train, []int32{99})
		require.NoError(t, err)
		assert.Equal(t, int32(100), item)
	}

	// every item is excluded
	_, _, err := policy.Draw(rng, train, []int32{99, 100})
	assert.True(t, errors.Is(err, ErrSamplingExhausted))
	_, _, err = NegativePolicy{}.Draw(rng, train, nil)
	assert.True(t, errors.Is(err, ErrSamplingExhausted))
}

func TestNewSampler(t *testing.T) {
	_, err := NewSampler(newTrain(), nil, 5, 0, NegativePolicy{ItemNum: 30})
	assert.Error(t, err)
	_, err = NewSampler(newTrain(), nil, 0, 4, NegativePolicy{ItemNum: 30})
	assert.Error(t, err)

	train := dataset.NewUserSequences()
	train.Append(1, 1)
	_, err = NewSampler(train, nil, 1, 4, NegativePolicy{ItemNum: 30})
	assert.True(t, errors.Is(err, ErrNoTrainableUser))
}

func TestSample(t *testing.T) {
	s, err := NewSampler(newTrain(), nil, 5, 4, NegativePolicy{ItemNum: 30})
	require.NoError(t, err)
	rng := base.NewRandomGenerator(0)

	example, err := s.Sample(rng, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), example.UID)
	assert.Equal(t, []int32{1, 2, 3, 4}, example.Seq)
	assert.Equal(t, []int32{2, 3, 4, 5}, example.Pos)

	example, err = s.Sample(rng, 3)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 0, 7, 8}, example.Seq)
	assert.Equal(t, []int32{0, 0, 8, 9}, example.Pos)
	assert.Equal(t, []float32{1, 1, 1, 1}, example.NegWeight)

	example, err = s.Sample(rng, 5)
	require.NoError(t, err)
	assert.Equal(t, []int32{18, 19, 20, 21}, example.Seq)
	assert.Equal(t, []int32{19, 20, 21, 22}, example.Pos)
}

func TestSampleProperties(t *testing.T) {
	train := newTrain()
	s, err := NewSampler(train, nil, 6, 8, NegativePolicy{ItemNum: 30})
	require.NoError(t, err)
	rng := base.NewRandomGenerator(1)
	for uid := int32(1); uid <= 6; uid++ {
		for range 20 {
			example, err := s.Sample(rng, uid)
			require.NoError(t, err)
			assert.Len(t, example.Seq, 8)
			assert.Len(t, example.Pos, 8)
			assert.Len(t, example.Neg, 8)
			assert.Len(t, example.NegWeight, 8)
			// short histories are replaced
			assert.Greater(t, len(train.Get(example.UID)), 1)
			history := train.Get(example.UID)
			for idx := range example.Pos {
				assert.Equal(t, example.Pos[idx] == 0, example.Neg[idx] == 0)
				if example.Neg[idx] != 0 {
					assert.NotContains(t, history, example.Neg[idx])
				}
			}
		}
	}
}

func TestSampleRedrawFallback(t *testing.T) {
	train := dataset.NewUserSequences()
	train.Append(1000, 1, 2)
	s, err := NewSampler(train, nil, 1000, 2, NegativePolicy{ItemNum: 10, MaxRetries: 1})
	require.NoError(t, err)
	example, err := s.Sample(base.NewRandomGenerator(0), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1000), example.UID)
}

func TestSampleExplicitNegatives(t *testing.T) {
	disliked := dataset.NewUserSequences()
	disliked.Append(1, 25, 26)
	s, err := NewSampler(newTrain(), disliked, 5, 4, NegativePolicy{
		ItemNum:  30,
		Explicit: true,
		PDislike: DefaultPDislike,
		WDislike: DefaultWDislike,
	})
	require.NoError(t, err)
	rng := base.NewRandomGenerator(0)
	var numDisliked int
	for range 100 {
		example, err := s.Sample(rng, 1)
		require.NoError(t, err)
		for idx, neg := range example.Neg {
			if neg == 25 || neg == 26 {
				assert.Equal(t, float32(2), example.NegWeight[idx])
				numDisliked++
			} else {
				assert.Equal(t, float32(1), example.NegWeight[idx])
			}
		}
	}
	assert.Greater(t, numDisliked, 0)
	assert.Less(t, numDisliked, 400)
}

func TestSampleNegative(t *testing.T) {
	s, err := NewSampler(newTrain(), nil, 5, 4, NegativePolicy{ItemNum: 6})
	require.NoError(t, err)
	item, weight, err := s.SampleNegative(base.NewRandomGenerator(0), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(6), item)
	assert.Equal(t, float32(1), weight)
}

func TestBatchProducer(t *testing.T) {
	s, err := NewSampler(newTrain(), nil, 5, 4, NegativePolicy{ItemNum: 30})
	require.NoError(t, err)
	producer := NewBatchProducer(s, 0)
	batch, err := producer.Next(7)
	require.NoError(t, err)
	assert.Equal(t, 7, batch.Len())
	assert.Len(t, batch.Seqs, 7)
	assert.Len(t, batch.Poss, 7)
	assert.Len(t, batch.Negs, 7)
	assert.Len(t, batch.NegWeights, 7)
	for _, uid := range batch.UIDs {
		assert.Contains(t, []int32{1, 3, 5}, uid)
	}
}

func TestWarpSampler(t *testing.T) {
	s, err := NewSampler(newTrain(), nil, 5, 4, NegativePolicy{ItemNum: 30})
	require.NoError(t, err)
	w := NewWarpSampler(s, WarpConfig{BatchSize: 3, NumWorkers: 2, Seed: 42})
	defer w.Close()
	assert.Len(t, w.Seeds(), 2)
	assert.Equal(t, 20, w.Capacity())

	for range 50 {
		batch, err := w.NextBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, batch.Len())
	}
}

func TestWarpSamplerBoundedQueue(t *testing.T) {
	s, err := NewSampler(newTrain(), nil, 5, 4, NegativePolicy{ItemNum: 30})
	require.NoError(t, err)
	w := NewWarpSampler(s, WarpConfig{BatchSize: 2, NumWorkers: 3})
	defer w.Close()
	assert.Eventually(t, func() bool {
		assert.LessOrEqual(t, w.Pending(), 30)
		return w.Pending() == 30
	}, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 30, w.Pending())
	assert.Equal(t, int64(30), w.Produced())
}

func TestWarpSamplerReproducible(t *testing.T) {
	s, err := NewSampler(newTrain(), nil, 5, 4, NegativePolicy{ItemNum: 30})
	require.NoError(t, err)
	first := func() (*Batch, []int64) {
		w := NewWarpSampler(s, WarpConfig{BatchSize: 5, Seed: 7})
		defer w.Close()
		batch, err := w.NextBatch(context.Background())
		require.NoError(t, err)
		return batch, w.Seeds()
	}
	batch1, seeds1 := first()
	batch2, seeds2 := first()
	assert.Equal(t, seeds1, seeds2)
	assert.Equal(t, batch1, batch2)

	// a producer seeded with the recorded seed replays the stream
	replay, err := NewBatchProducer(s, seeds1[0]).Next(5)
	require.NoError(t, err)
	assert.Equal(t, batch1, replay)
}

func TestWarpSamplerFailure(t *testing.T) {
	train := dataset.NewUserSequences()
	train.Append(1, 1, 2)
	s, err := NewSampler(train, nil, 1, 4, NegativePolicy{ItemNum: 2})
	require.NoError(t, err)
	w := NewWarpSampler(s, WarpConfig{BatchSize: 1})
	defer w.Close()
	_, err = w.NextBatch(context.Background())
	assert.True(t, errors.Is(err, ErrSamplingExhausted))
	assert.Eventually(t, func() bool { return w.Failures() == 1 }, time.Second, time.Millisecond)
}

func TestWarpSamplerClose(t *testing.T) {
	s, err := NewSampler(newTrain(), nil, 5, 4, NegativePolicy{ItemNum: 30})
	require.NoError(t, err)
	w := NewWarpSampler(s, WarpConfig{BatchSize: 1, NumWorkers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// a ready batch may win the select, otherwise the context error is returned
	if _, err = w.NextBatch(ctx); err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	w.Close()
	w.Close()
	_, err = w.NextBatch(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
}
