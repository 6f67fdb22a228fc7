/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/volta-networks/pcep/pcep/stats"
)

var sessionsURLFlag string

func init() {
	RootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().StringVarP(&sessionsURLFlag, "url", "u", "http://localhost:8888", "monitoring endpoint of a running pcepc")
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Print counters of a running pcepc from its monitoring endpoint",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		counters, err := stats.FetchCounters(sessionsURLFlag)
		if err != nil {
			log.Fatalf("fetching counters from %s: %v", sessionsURLFlag, err)
		}
		keys := make([]string, 0, len(counters))
		for k := range counters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		table := tablewriter.NewWriter(os.Stdout)
		table.SetColWidth(40)
		table.SetHeader([]string{"counter", "value"})
		for _, k := range keys {
			table.Append([]string{strings.TrimPrefix(k, "pcep.pcc."), fmt.Sprintf("%d", counters[k])})
		}
		table.Render()
	},
}
