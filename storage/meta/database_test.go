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
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func (suite *baseTestSuite) TestRuns() {
	// Add runs
	sample := NewRun(RunSample, "toy")
	sample.Seeds = []int64{11, 22}
	sample.Config = map[string]any{"batch_size": 64}
	sample.CreateTime = time.Now().Add(-time.Hour)
	suite.NoError(suite.Database.PutRun(sample))
	evaluate := NewRun(RunEvaluate, "toy")
	evaluate.Scores["ndcg"] = 0.5
	evaluate.Scores["recall"] = 0.25
	suite.NoError(suite.Database.PutRun(evaluate))

	// Get run
	run, err := suite.Database.GetRun(sample.ID)
	suite.NoError(err)
	suite.Equal(sample.ID, run.ID)
	suite.Equal(RunSample, run.Kind)
	suite.Equal("toy", run.Dataset)
	suite.Equal([]int64{11, 22}, run.Seeds)
	suite.Equal(map[string]any{"batch_size": float64(64)}, run.Config)
	suite.WithinDuration(sample.CreateTime, run.CreateTime, time.Second)
	run, err = suite.Database.GetRun(evaluate.ID)
	suite.NoError(err)
	suite.Equal(map[string]float32{"ndcg": 0.5, "recall": 0.25}, run.Scores)

	// Update run
	evaluate.Scores["ndcg"] = 0.75
	suite.NoError(suite.Database.PutRun(evaluate))
	run, err = suite.Database.GetRun(evaluate.ID)
	suite.NoError(err)
	suite.Equal(float32(0.75), run.Scores["ndcg"])

	// List runs
	runs, err := suite.Database.ListRuns("", 0)
	suite.NoError(err)
	if suite.Equal(2, len(runs)) {
		suite.Equal(evaluate.ID, runs[0].ID)
		suite.Equal(sample.ID, runs[1].ID)
	}
	runs, err = suite.Database.ListRuns(RunSample, 10)
	suite.NoError(err)
	if suite.Equal(1, len(runs)) {
		suite.Equal(sample.ID, runs[0].ID)
	}
	runs, err = suite.Database.ListRuns("", 1)
	suite.NoError(err)
	suite.Equal(1, len(runs))

	// Test non-existing run
	_, err = suite.Database.GetRun("non-existing-run")
	suite.True(errors.Is(err, errors.NotFound))
}
