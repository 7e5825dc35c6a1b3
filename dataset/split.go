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

package dataset

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gorse-io/seqrec/base/log"
	"github.com/gorse-io/seqrec/storage/blob"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	NumValidItems = 50
	NumTestItems  = 100
	// MinInteractionsForFullSplit is the shortest history that keeps at least one
	// training item after holding out full validation and test segments.
	MinInteractionsForFullSplit = 1 + NumValidItems + NumTestItems
)

const (
	TrainFile      = "train.txt"
	ValidationFile = "validation.txt"
	TestFile       = "test.txt"
)

// Split holds the chronological train/validation/test segments of every user.
// UserNum and ItemNum are the largest ids seen and size the embedding tables.
type Split struct {
	Train   *UserSequences
	Valid   *UserSequences
	Test    *UserSequences
	UserNum int32
	ItemNum int32
}

func NewSplit() *Split {
	return &Split{
		Train: NewUserSequences(),
		Valid: NewUserSequences(),
		Test:  NewUserSequences(),
	}
}

// Clone returns a deep copy so that evaluation never mutates shared state.
func (s *Split) Clone() *Split {
	return &Split{
		Train:   s.Train.Clone(),
		Valid:   s.Valid.Clone(),
		Test:    s.Test.Clone(),
		UserNum: s.UserNum,
		ItemNum: s.ItemNum,
	}
}

// Partition is a split together with the liked and disliked sub-sequences of
// every user.
type Partition struct {
	*Split
	Liked    *UserSequences
	Disliked *UserSequences
}

// splitUser applies the graduated hold-out policy to one interaction list.
func splitUser(items []int32) (train, valid, test []int32) {
	n := len(items)
	switch {
	case n >= MinInteractionsForFullSplit:
		m := n - NumValidItems - NumTestItems
		return items[:m:m], items[m : n-NumTestItems : n-NumTestItems], items[n-NumTestItems:]
	case n >= 3:
		return items[: n-2 : n-2], items[n-2 : n-1 : n-1], items[n-1:]
	case n == 2:
		return items[:1:1], items[1:], []int32{}
	case n == 1:
		return items, []int32{}, []int32{}
	default:
		return []int32{}, []int32{}, []int32{}
	}
}

// DataPartition reads `user item [liked]` lines and splits every user's history
// chronologically. If allInTest is set, every interaction goes to the test segment,
// which is how a dataset is prepared for cross-dataset inference.
func DataPartition(r io.Reader, allInTest bool) (*Partition, error) {
	var (
		interactions = NewUserSequences()
		partition    = &Partition{
			Split:    NewSplit(),
			Liked:    NewUserSequences(),
			Disliked: NewUserSequences(),
		}
	)
	if err := scanInteractions(r, func(interaction Interaction) {
		partition.UserNum = max(partition.UserNum, interaction.User)
		partition.ItemNum = max(partition.ItemNum, interaction.Item)
		interactions.Append(interaction.User, interaction.Item)
		if interaction.Liked {
			partition.Liked.Append(interaction.User, interaction.Item)
		} else {
			partition.Disliked.Append(interaction.User, interaction.Item)
		}
	}); err != nil {
		return nil, errors.Trace(err)
	}
	for _, user := range interactions.Users() {
		items := interactions.Get(user)
		if allInTest {
			partition.Train.Set(user, []int32{})
			partition.Valid.Set(user, []int32{})
			partition.Test.Set(user, items)
			continue
		}
		train, valid, test := splitUser(items)
		partition.Train.Set(user, train)
		partition.Valid.Set(user, valid)
		partition.Test.Set(user, test)
	}
	return partition, nil
}

type PartitionOptions struct {
	AllInTest bool
	// Output receives train.txt, validation.txt and test.txt if it is not nil.
	Output blob.Store
}

// LoadPartition partitions <name>.txt from a blob store and optionally saves the split.
func LoadPartition(store blob.Store, name string, opts PartitionOptions) (*Partition, error) {
	r, err := store.Open(name + ".txt")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	partition, err := DataPartition(r, opts.AllInTest)
	if err != nil {
		return nil, errors.Annotatef(err, "partition %s", name)
	}
	log.Logger().Info("partition dataset",
		zap.String("dataset", name),
		zap.Bool("all_in_test", opts.AllInTest),
		zap.Int32("n_users", partition.UserNum),
		zap.Int32("n_items", partition.ItemNum),
		zap.Int("n_train", partition.Train.Count()),
		zap.Int("n_valid", partition.Valid.Count()),
		zap.Int("n_test", partition.Test.Count()))
	if opts.Output != nil {
		if err = SaveSplit(opts.Output, partition.Split); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return partition, nil
}

// SaveSplit writes train.txt, validation.txt and test.txt as `user item` lines,
// users in first-occurrence order and items in chronological order.
func SaveSplit(store blob.Store, split *Split) error {
	for _, file := range []struct {
		name string
		seqs *UserSequences
	}{
		{TrainFile, split.Train},
		{ValidationFile, split.Valid},
		{TestFile, split.Test},
	} {
		if err := blob.Upload(store, file.name, func(w io.Writer) error {
			return writeSequences(w, file.seqs)
		}); err != nil {
			return errors.Annotatef(err, "save %s", file.name)
		}
	}
	return nil
}

func writeSequences(w io.Writer, seqs *UserSequences) error {
	buf := bufio.NewWriter(w)
	for _, user := range seqs.Users() {
		for _, item := range seqs.Get(user) {
			if _, err := fmt.Fprintf(buf, "%d %d\n", user, item); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(buf.Flush())
}

// CrossDatasetSplits evaluates a model trained on one dataset against the test
// segments of another. Every user in eval's test set keeps that test segment and
// takes train/valid from the training partition, or empty segments for users the
// model has never seen. Sizes come from the training partition because they must
// match the embedding tables of the model.
func CrossDatasetSplits(train, eval *Partition) *Split {
	split := NewSplit()
	for _, user := range eval.Test.Users() {
		split.Train.Set(user, trainOrEmpty(train.Train, user))
		split.Valid.Set(user, trainOrEmpty(train.Valid, user))
		split.Test.Set(user, eval.Test.Get(user))
	}
	split.UserNum = train.UserNum
	split.ItemNum = train.ItemNum
	return split
}

func trainOrEmpty(seqs *UserSequences, user int32) []int32 {
	if items := seqs.Get(user); items != nil {
		return items
	}
	return []int32{}
}

// ContextWindow builds a right-aligned, zero-padded window of length maxLen from
// history segments given oldest first. The most recent item lands at maxLen-1.
func ContextWindow(maxLen int, segments ...[]int32) []int32 {
	window := make([]int32, maxLen)
	idx := maxLen - 1
	for s := len(segments) - 1; s >= 0 && idx >= 0; s-- {
		for i := len(segments[s]) - 1; i >= 0 && idx >= 0; i-- {
			window[idx] = segments[s][i]
			idx--
		}
	}
	return window
}
