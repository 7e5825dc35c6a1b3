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
	"os"

	"github.com/gorse-io/seqrec/base/json"
	"github.com/gorse-io/seqrec/config"
	"github.com/gorse-io/seqrec/dataset"
	"github.com/gorse-io/seqrec/evaluator"
	"github.com/gorse-io/seqrec/model"
	"github.com/gorse-io/seqrec/storage/meta"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [dataset]",
	Short: "Evaluate a baseline model on the validation or test segment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name, err := datasetName(cfg, args)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("mode") {
			cfg.Eval.Mode, _ = cmd.Flags().GetString("mode")
		}
		mode, err := evaluator.ParseMode(cfg.Eval.Mode)
		if err != nil {
			return errors.Trace(err)
		}
		partition, err := loadPartition(cfg, name, false, true)
		if err != nil {
			return errors.Trace(err)
		}
		modelName, _ := cmd.Flags().GetString("model")
		score, err := evaluateModel(cmd, cfg, modelName, partition.Split, mode, partition.Liked)
		if err != nil {
			return errors.Trace(err)
		}
		run := meta.NewRun(meta.RunEvaluate, name)
		return finishEvaluation(cmd, cfg, run, score)
	},
}

var crossEvaluateCmd = &cobra.Command{
	Use:   "cross-evaluate <train-dataset> <eval-dataset>",
	Short: "Evaluate a model fitted on one dataset against the interactions of another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		train, err := loadPartition(cfg, args[0], false, true)
		if err != nil {
			return errors.Trace(err)
		}
		// the output store holds the splits of the training dataset
		eval, err := loadPartition(cfg, args[1], true, false)
		if err != nil {
			return errors.Trace(err)
		}
		split := dataset.CrossDatasetSplits(train, eval)
		modelName, _ := cmd.Flags().GetString("model")
		score, err := evaluateModel(cmd, cfg, modelName, split, evaluator.ModeTest, eval.Liked)
		if err != nil {
			return errors.Trace(err)
		}
		run := meta.NewRun(meta.RunCrossEvaluate, args[0]+"->"+args[1])
		return finishEvaluation(cmd, cfg, run, score)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{evaluateCmd, crossEvaluateCmd} {
		cmd.Flags().String("model", "item-pop", "baseline model (item-pop, random)")
		cmd.Flags().Bool("json", false, "print scores as JSON")
		cmd.Flags().Bool("progress", true, "show a progress bar")
	}
	evaluateCmd.Flags().String("mode", "", "evaluation mode (test, valid)")
}

// progressPredictor advances a progress bar after every prediction.
type progressPredictor struct {
	evaluator.Predictor
	bar *progressbar.ProgressBar
}

func (p *progressPredictor) Predict(ctx context.Context, user int32, window []int32, candidates []int32) ([]float32, error) {
	scores, err := p.Predictor.Predict(ctx, user, window, candidates)
	_ = p.bar.Add(1)
	return scores, err
}

func newModel(name string, split *dataset.Split, seed int64) (evaluator.Predictor, error) {
	switch name {
	case "item-pop":
		pop := model.NewItemPop()
		pop.Fit(split.Train, split.ItemNum)
		return pop, nil
	case "random":
		return model.NewRandom(seed), nil
	default:
		return nil, errors.NotSupportedf("model %s", name)
	}
}

func evalConfig(cfg config.EvalConfig) evaluator.Config {
	return evaluator.Config{
		MaxLen:            cfg.MaxLen,
		WeightedDislike:   cfg.WeightedDislike,
		ExplicitNegatives: cfg.ExplicitNegatives,
		TopK:              cfg.TopK,
		NumNegatives:      cfg.NumNegatives,
		Jobs:              cfg.Jobs,
		Seed:              cfg.Seed,
		MaxRetries:        cfg.MaxRetries,
	}
}

func evaluateModel(cmd *cobra.Command, cfg *config.Config, modelName string, split *dataset.Split, mode evaluator.Mode, liked *dataset.UserSequences) (evaluator.Score, error) {
	predictor, err := newModel(modelName, split, cfg.Eval.Seed)
	if err != nil {
		return evaluator.Score{}, err
	}
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		heldOut := split.Test
		if mode == evaluator.ModeValid {
			heldOut = split.Valid
		}
		bar := progressbar.Default(int64(heldOut.Len()), "evaluate")
		defer bar.Close()
		return evaluateWithProgress(cmd.Context(), bar, predictor, split, evalConfig(cfg.Eval), mode, liked)
	}
	return evaluator.Evaluate(cmd.Context(), predictor, split, evalConfig(cfg.Eval), mode, liked)
}

// evaluateWithProgress advances the bar per predicted user. Skipped users never
// reach the predictor, so the bar is completed once evaluation succeeds.
func evaluateWithProgress(ctx context.Context, bar *progressbar.ProgressBar, predictor evaluator.Predictor, split *dataset.Split,
	cfg evaluator.Config, mode evaluator.Mode, liked *dataset.UserSequences) (evaluator.Score, error) {
	score, err := evaluator.Evaluate(ctx, &progressPredictor{Predictor: predictor, bar: bar}, split, cfg, mode, liked)
	if err != nil {
		return evaluator.Score{}, err
	}
	_ = bar.Finish()
	return score, nil
}

func finishEvaluation(cmd *cobra.Command, cfg *config.Config, run *meta.Run, score evaluator.Score) error {
	run.Seeds = []int64{cfg.Eval.Seed}
	run.Config = cfg.Eval
	run.Scores["ndcg"] = score.NDCG
	run.Scores["precision"] = score.Precision
	run.Scores["recall"] = score.Recall
	run.Scores["hr"] = score.HR
	run.Scores["mrr"] = score.MRR
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if err := json.Write(os.Stdout, score); err != nil {
			return errors.Trace(err)
		}
	} else {
		k := cfg.Eval.TopK
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"", fmt.Sprintf("NDCG@%d", k), fmt.Sprintf("Precision@%d", k), fmt.Sprintf("Recall@%d", k), fmt.Sprintf("HR@%d", k), "MRR", "#users"})
		lo.Must0(table.Bulk([][]string{{
			run.Dataset,
			fmt.Sprintf("%.4f", score.NDCG),
			fmt.Sprintf("%.4f", score.Precision),
			fmt.Sprintf("%.4f", score.Recall),
			fmt.Sprintf("%.4f", score.HR),
			fmt.Sprintf("%.4f", score.MRR),
			fmt.Sprint(score.Users),
		}}))
		lo.Must0(table.Render())
	}
	return recordRun(cfg, run)
}
