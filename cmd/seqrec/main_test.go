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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorse-io/seqrec/config"
	"github.com/gorse-io/seqrec/dataset"
	"github.com/gorse-io/seqrec/evaluator"
	"github.com/gorse-io/seqrec/storage/meta"
	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetName(t *testing.T) {
	cfg := config.GetDefaultConfig()
	_, err := datasetName(cfg, nil)
	assert.Error(t, err)
	cfg.Data.Dataset = "kuairec"
	name, err := datasetName(cfg, nil)
	assert.NoError(t, err)
	assert.Equal(t, "kuairec", name)
	name, err = datasetName(cfg, []string{"movielens"})
	assert.NoError(t, err)
	assert.Equal(t, "movielens", name)
}

func TestNewModel(t *testing.T) {
	split := dataset.NewSplit()
	split.Train.Set(1, []int32{1, 2})
	split.ItemNum = 2
	_, err := newModel("item-pop", split, 0)
	assert.NoError(t, err)
	_, err = newModel("random", split, 0)
	assert.NoError(t, err)
	_, err = newModel("sasrec", split, 0)
	assert.Error(t, err)
}

func TestNegativePolicy(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sampler.ExplicitNegatives = true
	policy := negativePolicy(cfg.Sampler, 42)
	assert.Equal(t, int32(42), policy.ItemNum)
	assert.True(t, policy.Explicit)
	assert.Equal(t, 0.5, policy.PDislike)
	assert.Equal(t, float32(2), policy.WDislike)
}

func TestEvaluateWithProgress(t *testing.T) {
	split := dataset.NewSplit()
	split.Train.Set(1, []int32{1, 2})
	split.Test.Set(1, []int32{3})
	// no train items, so never predicted
	split.Test.Set(2, []int32{4})
	split.UserNum = 2
	split.ItemNum = 20
	predictor, err := newModel("item-pop", split, 0)
	require.NoError(t, err)
	bar := progressbar.NewOptions(split.Test.Len(), progressbar.OptionSetWriter(io.Discard))
	score, err := evaluateWithProgress(context.Background(), bar, predictor, split,
		evaluator.Config{MaxLen: 3, NumNegatives: 5}, evaluator.ModeTest, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, score.Users)
	assert.True(t, bar.IsFinished())
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	for user := 1; user <= 30; user++ {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(&sb, "%d %d %d\n", user, (user*7+i*3)%50+1, (user+i)%2)
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toy.txt"), []byte(sb.String()), 0o644))
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
[data]
dataset = "toy"
save_splits = true

[storage]
input = "%s"
output = "%s"

[sampler]
batch_size = 4
maxlen = 3

[eval]
maxlen = 3
n_negatives = 10

[meta]
path = "sqlite://%s"
`, dir, filepath.Join(dir, "splits"), filepath.Join(dir, "meta.db"))), 0o644))

	execute := func(args ...string) {
		rootCmd.SetArgs(append(args, "--config", configPath))
		require.NoError(t, rootCmd.Execute(), args)
	}
	execute("index")
	execute("split")
	splitFiles := make(map[string]string)
	for _, name := range []string{dataset.TrainFile, dataset.ValidationFile, dataset.TestFile} {
		content, err := os.ReadFile(filepath.Join(dir, "splits", name))
		require.NoError(t, err)
		splitFiles[name] = string(content)
	}
	assert.NotEmpty(t, splitFiles[dataset.TrainFile])
	execute("sample", "--batches", "3", "--seed", "1")
	execute("evaluate", "--progress=false", "--json")
	execute("cross-evaluate", "toy", "toy", "--progress=false")
	// the all-in-test partition of the eval dataset is not saved
	for name, expected := range splitFiles {
		content, err := os.ReadFile(filepath.Join(dir, "splits", name))
		require.NoError(t, err)
		assert.Equal(t, expected, string(content), name)
	}
	execute("runs")

	database, err := meta.Open("sqlite://" + filepath.Join(dir, "meta.db"))
	require.NoError(t, err)
	defer database.Close()
	runs, err := database.ListRuns("", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	runs, err = database.ListRuns(meta.RunSample, 0)
	require.NoError(t, err)
	if assert.Len(t, runs, 1) {
		assert.Len(t, runs[0].Seeds, 1)
	}
}
