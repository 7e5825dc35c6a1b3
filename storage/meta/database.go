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

package meta

import (
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/google/uuid"
	"github.com/gorse-io/seqrec/base/json"
	"github.com/gorse-io/seqrec/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
)

const (
	RunSample        = "sample"
	RunEvaluate      = "evaluate"
	RunCrossEvaluate = "cross-evaluate"
)

// Run records what is needed to reproduce a sampling or evaluation run.
type Run struct {
	ID         string
	Kind       string
	Dataset    string
	Seeds      []int64
	Scores     map[string]float32
	Config     any
	CreateTime time.Time
}

func NewRun(kind, dataset string) *Run {
	return &Run{
		ID:         uuid.NewString(),
		Kind:       kind,
		Dataset:    dataset,
		Scores:     make(map[string]float32),
		CreateTime: time.Now(),
	}
}

type Database interface {
	Close() error
	Init() error
	PutRun(run *Run) error
	GetRun(id string) (*Run, error)
	// ListRuns returns the latest n runs, optionally filtered by kind.
	ListRuns(kind string, n int) ([]*Run, error)
}

// Open a connection to a database.
func Open(path string) (Database, error) {
	var err error
	if strings.HasPrefix(path, storage.SQLitePrefix) {
		dataSourceName := path[len(storage.SQLitePrefix):]
		// append parameters
		if dataSourceName, err = storage.AppendURLParams(dataSourceName, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := new(SQLite)
		if database.db, err = otelsql.Open("sqlite", dataSourceName,
			otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", path)
}

func marshalRun(run *Run) (seeds, scores, config string, err error) {
	var data []byte
	if data, err = json.Marshal(run.Seeds); err != nil {
		return
	}
	seeds = string(data)
	if data, err = json.Marshal(run.Scores); err != nil {
		return
	}
	scores = string(data)
	if data, err = json.Marshal(run.Config); err != nil {
		return
	}
	config = string(data)
	return
}
