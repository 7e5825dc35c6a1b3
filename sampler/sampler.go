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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/seqrec/base"
	"github.com/gorse-io/seqrec/dataset"
	"github.com/juju/errors"
)

// Example is one training window. All slices have length maxLen and are right
// aligned: the most recent train transition sits at maxLen-1 and padding is 0.
type Example struct {
	UID       int32
	Seq       []int32
	Pos       []int32
	Neg       []int32
	NegWeight []float32
}

// Sampler builds training examples from the train segments of a split.
type Sampler struct {
	train     *dataset.UserSequences
	disliked  *dataset.UserSequences
	userNum   int32
	maxLen    int
	policy    NegativePolicy
	trainable []int32
}

func NewSampler(train, disliked *dataset.UserSequences, userNum int32, maxLen int, policy NegativePolicy) (*Sampler, error) {
	if maxLen < 1 {
		return nil, errors.NotValidf("maxlen %d", maxLen)
	}
	if userNum < 1 {
		return nil, errors.NotValidf("user number %d", userNum)
	}
	s := &Sampler{
		train:    train,
		disliked: disliked,
		userNum:  userNum,
		maxLen:   maxLen,
		policy:   policy,
	}
	for _, user := range train.Users() {
		if user <= userNum && len(train.Get(user)) > 1 {
			s.trainable = append(s.trainable, user)
		}
	}
	if len(s.trainable) == 0 {
		return nil, errors.Trace(ErrNoTrainableUser)
	}
	return s, nil
}

// Sample builds the example of a user. Users with at most one train item are
// replaced by a uniformly drawn user, and after too many misses by a user known
// to have enough history.
func (s *Sampler) Sample(rng base.RandomGenerator, uid int32) (*Example, error) {
	for retries := 0; len(s.train.Get(uid)) <= 1; retries++ {
		if retries >= s.policy.maxRetries() {
			uid = rng.Choice(s.trainable)
			break
		}
		uid = rng.Int32Range(1, s.userNum)
	}
	items := s.train.Get(uid)
	example := &Example{
		UID:       uid,
		Seq:       make([]int32, s.maxLen),
		Pos:       make([]int32, s.maxLen),
		Neg:       make([]int32, s.maxLen),
		NegWeight: make([]float32, s.maxLen),
	}
	for i := range example.NegWeight {
		example.NegWeight[i] = 1
	}
	trainSet := mapset.NewThreadUnsafeSet(items...)
	disliked := s.disliked.Get(uid)
	next := items[len(items)-1]
	idx := s.maxLen - 1
	for i := len(items) - 2; i >= 0 && idx >= 0; i-- {
		example.Seq[idx] = items[i]
		example.Pos[idx] = next
		if next != 0 {
			neg, weight, err := s.policy.Draw(rng, trainSet, disliked)
			if err != nil {
				return nil, errors.Annotatef(err, "sample negative for user %d", uid)
			}
			example.Neg[idx] = neg
			example.NegWeight[idx] = weight
		}
		next = items[i]
		idx--
	}
	return example, nil
}

// SampleNegative draws a single negative for a user under the same policy as Sample.
func (s *Sampler) SampleNegative(rng base.RandomGenerator, uid int32) (int32, float32, error) {
	trainSet := mapset.NewThreadUnsafeSet(s.train.Get(uid)...)
	return s.policy.Draw(rng, trainSet, s.disliked.Get(uid))
}
