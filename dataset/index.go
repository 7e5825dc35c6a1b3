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
	"io"

	"github.com/gorse-io/seqrec/storage/blob"
	"github.com/juju/errors"
)

// Index holds the inverted adjacency lists of an interaction log. Both slices are
// indexed by id and sized max id + 1, so slot 0 is always unused.
type Index struct {
	UserItems [][]int32
	ItemUsers [][]int32
}

func (idx *Index) CountUsers() int {
	return len(idx.UserItems) - 1
}

func (idx *Index) CountItems() int {
	return len(idx.ItemUsers) - 1
}

// BuildIndex reads `user item` pairs and appends every interaction to both
// adjacency lists in file order.
func BuildIndex(r io.Reader) (*Index, error) {
	var (
		interactions     []Interaction
		maxUser, maxItem int32
	)
	if err := scanInteractions(r, func(interaction Interaction) {
		interactions = append(interactions, interaction)
		maxUser = max(maxUser, interaction.User)
		maxItem = max(maxItem, interaction.Item)
	}); err != nil {
		return nil, errors.Trace(err)
	}
	idx := &Index{
		UserItems: make([][]int32, maxUser+1),
		ItemUsers: make([][]int32, maxItem+1),
	}
	for _, interaction := range interactions {
		idx.UserItems[interaction.User] = append(idx.UserItems[interaction.User], interaction.Item)
		idx.ItemUsers[interaction.Item] = append(idx.ItemUsers[interaction.Item], interaction.User)
	}
	return idx, nil
}

// LoadIndex builds the index of <name>.txt in a blob store.
func LoadIndex(store blob.Store, name string) (*Index, error) {
	r, err := store.Open(name + ".txt")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	return BuildIndex(r)
}

// CountUsersItems scans a log for the largest user and item ids without keeping
// any interaction in memory.
func CountUsersItems(r io.Reader) (userNum, itemNum int32, err error) {
	err = scanInteractions(r, func(interaction Interaction) {
		userNum = max(userNum, interaction.User)
		itemNum = max(itemNum, interaction.Item)
	})
	return userNum, itemNum, errors.Trace(err)
}
