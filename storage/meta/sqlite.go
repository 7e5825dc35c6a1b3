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
	"database/sql"
	"fmt"
	"time"

	"github.com/gorse-io/seqrec/base/json"
	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Init() error {
	// Create tables
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT,
	dataset TEXT,
	seeds TEXT,
	scores TEXT,
	config TEXT,
	create_time DATETIME
);`); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS runs_create_time ON runs (create_time);`); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s *SQLite) PutRun(run *Run) error {
	seeds, scores, config, err := marshalRun(run)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = s.db.Exec(`
INSERT INTO runs (id, kind, dataset, seeds, scores, config, create_time)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kind = excluded.kind,
	dataset = excluded.dataset,
	seeds = excluded.seeds,
	scores = excluded.scores,
	config = excluded.config,
	create_time = excluded.create_time
`, run.ID, run.Kind, run.Dataset, seeds, scores, config, run.CreateTime.UTC())
	return errors.Trace(err)
}

func (s *SQLite) GetRun(id string) (*Run, error) {
	rs, err := s.db.Query(`
SELECT id, kind, dataset, seeds, scores, config, create_time FROM runs WHERE id = ?
`, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	runs, err := scanRuns(rs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(runs) == 0 {
		return nil, errors.NotFoundf("run %s", id)
	}
	return runs[0], nil
}

func (s *SQLite) ListRuns(kind string, n int) ([]*Run, error) {
	query := `SELECT id, kind, dataset, seeds, scores, config, create_time FROM runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY create_time DESC`
	if n > 0 {
		query += fmt.Sprintf(` LIMIT %d`, n)
	}
	rs, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return scanRuns(rs)
}

func scanRuns(rs *sql.Rows) ([]*Run, error) {
	defer rs.Close()
	var runs []*Run
	for rs.Next() {
		var (
			run                   Run
			seeds, scores, config string
			createTime            time.Time
		)
		if err := rs.Scan(&run.ID, &run.Kind, &run.Dataset, &seeds, &scores, &config, &createTime); err != nil {
			return nil, errors.Trace(err)
		}
		if err := json.Unmarshal([]byte(seeds), &run.Seeds); err != nil {
			return nil, errors.Trace(err)
		}
		if err := json.Unmarshal([]byte(scores), &run.Scores); err != nil {
			return nil, errors.Trace(err)
		}
		if err := json.Unmarshal([]byte(config), &run.Config); err != nil {
			return nil, errors.Trace(err)
		}
		run.CreateTime = createTime.Local()
		runs = append(runs, &run)
	}
	return runs, errors.Trace(rs.Err())
}
