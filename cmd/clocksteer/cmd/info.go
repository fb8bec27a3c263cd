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

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(infoCmd)
}

func printInfo() error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	tv, est, err := h.ReadTime()
	if err != nil {
		return err
	}
	caps := h.Capabilities()

	fmt.Printf("clock: %v\n", h.Selector())
	fmt.Printf("time: %s (%v)\n", tv.Time(), tv)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("capability", "value")
	rows := [][]string{
		{"frequency steering", fmt.Sprintf("%v", caps.SupportsFrequencySteering)},
		{"max frequency (ppb)", fmt.Sprintf("%.0f", caps.MaxFrequencyPPB)},
		{"min frequency (ppb)", fmt.Sprintf("%.0f", caps.MinFrequencyPPB)},
		{"max step", caps.MaxStep.String()},
		{"tick resolution (ns)", fmt.Sprintf("%d", caps.TickResolutionNS)},
		{"estimated error (ns)", fmt.Sprintf("%d", est.EstimatedErrorNS)},
		{"maximum error (ns)", fmt.Sprintf("%d", est.MaximumErrorNS)},
		{"unsynchronized", fmt.Sprintf("%v", est.Unsynchronized)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print current time, error estimate and capabilities of the clock",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := printInfo(); err != nil {
			log.Fatal(err)
		}
	},
}
