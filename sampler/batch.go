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
	"github.com/gorse-io/seqrec/base"
	"github.com/juju/errors"
)

// Batch holds examples as parallel slices.
type Batch struct {
	UIDs       []int32
	Seqs       [][]int32
	Poss       [][]int32
	Negs       [][]int32
	NegWeights [][]float32
}

func (b *Batch) Len() int {
	return len(b.UIDs)
}

func (b *Batch) append(example *Example) {
	b.UIDs = append(b.UIDs, example.UID)
	b.Seqs = append(b.Seqs, example.Seq)
	b.Poss = append(b.Poss, example.Pos)
	b.Negs = append(b.Negs, example.Neg)
	b.NegWeights = append(b.NegWeights, example.NegWeight)
}

// BatchProducer walks a private permutation of users and reshuffles it every
// time all users have been visited.
type BatchProducer struct {
	sampler *Sampler
	rng     base.RandomGenerator
	uids    []int32
	counter int
}

func NewBatchProducer(s *Sampler, seed int64) *BatchProducer {
	return &BatchProducer{
		sampler: s,
		rng:     base.NewRandomGenerator(seed),
		uids:    base.RangeInt32(1, s.userNum),
	}
}

func (p *BatchProducer) Next(batchSize int) (*Batch, error) {
	batch := &Batch{
		UIDs:       make([]int32, 0, batchSize),
		Seqs:       make([][]int32, 0, batchSize),
		Poss:       make([][]int32, 0, batchSize),
		Negs:       make([][]int32, 0, batchSize),
		NegWeights: make([][]float32, 0, batchSize),
	}
	for range batchSize {
		if p.counter%len(p.uids) == 0 {
			p.rng.ShuffleInt32(p.uids)
		}
		example, err := p.sampler.Sample(p.rng, p.uids[p.counter%len(p.uids)])
		if err != nil {
			return nil, errors.Trace(err)
		}
		batch.append(example)
		p.counter++
	}
	return batch, nil
}
