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
	"os"
	"strconv"

	"github.com/gorse-io/seqrec/dataset"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [dataset]",
	Short: "Build user and item indices of an interaction log",
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
		input, err := openInput(cfg)
		if err != nil {
			return err
		}
		idx, err := dataset.LoadIndex(input, name)
		if err != nil {
			return errors.Trace(err)
		}
		interactions := lo.SumBy(idx.UserItems, func(items []int32) int { return len(items) })
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"", "#users", "#items", "#interactions"})
		lo.Must0(table.Bulk([][]string{
			{name, strconv.Itoa(idx.CountUsers()), strconv.Itoa(idx.CountItems()), strconv.Itoa(interactions)},
		}))
		lo.Must0(table.Render())
		return nil
	},
}

var splitCmd = &cobra.Command{
	Use:   "split [dataset]",
	Short: "Split an interaction log into train, validation and test segments",
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
		if cmd.Flags().Changed("output") {
			cfg.Storage.Output, _ = cmd.Flags().GetString("output")
			cfg.Data.SaveSplits = true
		}
		allInTest, _ := cmd.Flags().GetBool("all-in-test")
		partition, err := loadPartition(cfg, name, allInTest || cfg.Data.AllInTest, true)
		if err != nil {
			return errors.Trace(err)
		}
		printSplit(name, partition.Split)
		return nil
	},
}

func init() {
	splitCmd.Flags().Bool("all-in-test", false, "put every interaction into the test segment")
	splitCmd.Flags().StringP("output", "o", "", "blob URL to save train.txt, validation.txt and test.txt")
}

func printSplit(name string, split *dataset.Split) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{name, "#users", "#interactions"})
	lo.Must0(table.Bulk([][]string{
		{"train", strconv.Itoa(split.Train.Len()), strconv.Itoa(split.Train.Count())},
		{"validation", strconv.Itoa(split.Valid.Len()), strconv.Itoa(split.Valid.Count())},
		{"test", strconv.Itoa(split.Test.Len()), strconv.Itoa(split.Test.Count())},
	}))
	lo.Must0(table.Render())
}
