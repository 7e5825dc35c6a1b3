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
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gorse-io/seqrec/base/json"
	"github.com/gorse-io/seqrec/storage/meta"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded sampling and evaluation runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		database, err := openMeta(cfg)
		if err != nil {
			return err
		}
		if database == nil {
			return errors.New("run ledger is disabled, set meta.path")
		}
		defer database.Close()
		kind, _ := cmd.Flags().GetString("kind")
		n, _ := cmd.Flags().GetInt("limit")
		runs, err := database.ListRuns(kind, n)
		if err != nil {
			return errors.Trace(err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return errors.Trace(json.Write(os.Stdout, runs))
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"id", "kind", "dataset", "seeds", "scores", "time"})
		lo.Must0(table.Bulk(lo.Map(runs, func(run *meta.Run, _ int) []string {
			scores := lo.MapToSlice(run.Scores, func(k string, v float32) string {
				return fmt.Sprintf("%s=%.4f", k, v)
			})
			slices.Sort(scores)
			return []string{
				run.ID,
				run.Kind,
				run.Dataset,
				fmt.Sprint(run.Seeds),
				strings.Join(scores, " "),
				run.CreateTime.Format(time.DateTime),
			}
		})))
		lo.Must0(table.Render())
		return nil
	},
}

func init() {
	runsCmd.Flags().String("kind", "", "filter by run kind (sample, evaluate, cross-evaluate)")
	runsCmd.Flags().IntP("limit", "n", 20, "number of latest runs to show")
	runsCmd.Flags().Bool("json", false, "print runs as JSON")
}
