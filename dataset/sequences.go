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

import "slices"

// UserSequences maps user ids to chronologically ordered item ids. Users are
// remembered in first-insertion order so that splits are written back in the
// order they appeared in the source log.
type UserSequences struct {
	users []int32
	items map[int32][]int32
}

func NewUserSequences() *UserSequences {
	return &UserSequences{items: make(map[int32][]int32)}
}

// Append adds items to the end of a user's sequence, registering the user if needed.
func (s *UserSequences) Append(user int32, items ...int32) {
	seq, exist := s.items[user]
	if !exist {
		s.users = append(s.users, user)
	}
	s.items[user] = append(seq, items...)
}

// Set replaces a user's sequence. The slice is stored as is.
func (s *UserSequences) Set(user int32, items []int32) {
	if _, exist := s.items[user]; !exist {
		s.users = append(s.users, user)
	}
	if items == nil {
		items = []int32{}
	}
	s.items[user] = items
}

// Get returns the sequence of a user, or nil if the user is absent.
func (s *UserSequences) Get(user int32) []int32 {
	if s == nil {
		return nil
	}
	return s.items[user]
}

func (s *UserSequences) Contains(user int32) bool {
	if s == nil {
		return false
	}
	_, exist := s.items[user]
	return exist
}

// Users returns user ids in first-insertion order.
func (s *UserSequences) Users() []int32 {
	if s == nil {
		return nil
	}
	return s.users
}

// Len returns the number of users.
func (s *UserSequences) Len() int {
	if s == nil {
		return 0
	}
	return len(s.users)
}

// Count returns the number of items over all users.
func (s *UserSequences) Count() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, seq := range s.items {
		n += len(seq)
	}
	return n
}

// Clone returns a deep copy.
func (s *UserSequences) Clone() *UserSequences {
	if s == nil {
		return nil
	}
	c := &UserSequences{
		users: slices.Clone(s.users),
		items: make(map[int32][]int32, len(s.items)),
	}
	for user, seq := range s.items {
		c.items[user] = append(make([]int32, 0, len(seq)), seq...)
	}
	return c
}
