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
	"strings"
	"testing"

	"github.com/gorse-io/seqrec/storage/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex(t *testing.T) {
	idx, err := BuildIndex(strings.NewReader("1 2\n3 2\n1 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, idx.CountUsers())
	assert.Equal(t, 4, idx.CountItems())
	assert.Empty(t, idx.UserItems[0])
	assert.Equal(t, []int32{2, 4}, idx.UserItems[1])
	assert.Empty(t, idx.UserItems[2])
	assert.Equal(t, []int32{2}, idx.UserItems[3])
	assert.Equal(t, []int32{1, 3}, idx.ItemUsers[2])
	assert.Equal(t, []int32{1}, idx.ItemUsers[4])
}

func TestBuildIndexEmpty(t *testing.T) {
	idx, err := BuildIndex(strings.NewReader(""))
	require.NoError(t, err)
	assert.Len(t, idx.UserItems, 1)
	assert.Len(t, idx.ItemUsers, 1)
	assert.Zero(t, idx.CountUsers())
}

func TestLoadIndex(t *testing.T) {
	store := blob.NewPOSIX(t.TempDir())
	require.NoError(t, blob.Upload(store, "toy.txt", func(w io.Writer) error {
		_, err := io.WriteString(w, "2 1 0\n2 3\n")
		return err
	}))
	idx, err := LoadIndex(store, "toy")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 3}, idx.UserItems[2])
}

func TestCountUsersItems(t *testing.T) {
	userNum, itemNum, err := CountUsersItems(strings.NewReader("5 2\n3 9\n"))
	require.NoError(t, err)
	assert.Equal(t, int32(5), userNum)
	assert.Equal(t, int32(9), itemNum)

	_, _, err = CountUsersItems(strings.NewReader("5\n"))
	assert.Error(t, err)
}

func TestUserSequences(t *testing.T) {
	seqs := NewUserSequences()
	seqs.Append(3, 1, 2)
	seqs.Append(1, 5)
	seqs.Append(3, 4)
	seqs.Set(2, nil)
	assert.Equal(t, []int32{3, 1, 2}, seqs.Users())
	assert.Equal(t, []int32{1, 2, 4}, seqs.Get(3))
	assert.NotNil(t, seqs.Get(2))
	assert.Nil(t, seqs.Get(4))
	assert.Equal(t, 3, seqs.Len())
	assert.Equal(t, 4, seqs.Count())

	var empty *UserSequences
	assert.Nil(t, empty.Get(1))
	assert.False(t, empty.Contains(1))
	assert.Zero(t, empty.Len())
}
