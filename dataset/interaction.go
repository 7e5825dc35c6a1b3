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
	"io"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Interaction is one row of an interaction log: `user item [liked]`.
type Interaction struct {
	User  int32
	Item  int32
	Liked bool
}

func parseID(field string, lineNo int) (int32, error) {
	id, err := strconv.ParseInt(field, 10, 32)
	if err != nil {
		return 0, errors.Annotatef(err, "line %d", lineNo)
	}
	if id <= 0 {
		return 0, errors.NotValidf("line %d: id %d", lineNo, id)
	}
	return int32(id), nil
}

func parseInteraction(line string, lineNo int) (Interaction, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Interaction{}, errors.NotValidf("line %d: expect at least 2 fields but got %q", lineNo, line)
	}
	user, err := parseID(fields[0], lineNo)
	if err != nil {
		return Interaction{}, err
	}
	item, err := parseID(fields[1], lineNo)
	if err != nil {
		return Interaction{}, err
	}
	interaction := Interaction{User: user, Item: item, Liked: true}
	if len(fields) > 2 {
		liked, err := strconv.Atoi(fields[2])
		if err != nil {
			return Interaction{}, errors.Annotatef(err, "line %d", lineNo)
		}
		interaction.Liked = liked == 1
	}
	return interaction, nil
}

// scanInteractions calls fn for every interaction in file order. Blank lines are skipped.
func scanInteractions(r io.Reader, fn func(Interaction)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		interaction, err := parseInteraction(line, lineNo)
		if err != nil {
			return err
		}
		fn(interaction)
	}
	return errors.Trace(scanner.Err())
}
