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
	"fmt"

	"github.com/gorse-io/seqrec/base/log"
	"github.com/gorse-io/seqrec/cmd/version"
	"github.com/gorse-io/seqrec/config"
	"github.com/gorse-io/seqrec/dataset"
	"github.com/gorse-io/seqrec/storage/blob"
	"github.com/gorse-io/seqrec/storage/meta"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "seqrec",
	Short: "Data pipeline and evaluation harness for sequential recommendation",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Print(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	log.AddFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCmd.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCmd.Flags().BoolP("version", "v", false, "seqrec version")
	rootCmd.AddCommand(indexCmd, splitCmd, sampleCmd, evaluateCmd, crossEvaluateCmd, runsCmd)
}

func main() {
	defer log.CloseLogger()
	if err := rootCmd.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// loadConfig loads the configuration file given by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		log.Logger().Info("load config", zap.String("config", configPath))
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Annotatef(err, "load config %s", configPath)
	}
	return cfg, nil
}

// datasetName returns the first argument or the dataset in the configuration.
func datasetName(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Data.Dataset == "" {
		return "", errors.New("dataset is required")
	}
	return cfg.Data.Dataset, nil
}

func openInput(cfg *config.Config) (blob.Store, error) {
	store, err := blob.Open(cfg.Storage.Input, cfg.Storage)
	if err != nil {
		return nil, errors.Annotatef(err, "open input %s", log.RedactURL(cfg.Storage.Input))
	}
	return store, nil
}

// loadPartition partitions a dataset. If save is set, the splits are also written
// to the output store when save_splits is enabled.
func loadPartition(cfg *config.Config, name string, allInTest, save bool) (*dataset.Partition, error) {
	input, err := openInput(cfg)
	if err != nil {
		return nil, err
	}
	opts := dataset.PartitionOptions{AllInTest: allInTest}
	if save && cfg.Data.SaveSplits && cfg.Storage.Output != "" {
		if opts.Output, err = blob.Open(cfg.Storage.Output, cfg.Storage); err != nil {
			return nil, errors.Annotatef(err, "open output %s", log.RedactURL(cfg.Storage.Output))
		}
	}
	return dataset.LoadPartition(input, name, opts)
}

// openMeta opens the run ledger, or returns nil if it is disabled.
func openMeta(cfg *config.Config) (meta.Database, error) {
	if cfg.Meta.Path == "" {
		return nil, nil
	}
	database, err := meta.Open(cfg.Meta.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = database.Init(); err != nil {
		_ = database.Close()
		return nil, errors.Trace(err)
	}
	return database, nil
}

// recordRun saves a run to the ledger if it is enabled.
func recordRun(cfg *config.Config, run *meta.Run) error {
	database, err := openMeta(cfg)
	if err != nil || database == nil {
		return err
	}
	defer database.Close()
	if err = database.PutRun(run); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("record run", zap.String("run_id", run.ID), zap.String("kind", run.Kind))
	return nil
}
