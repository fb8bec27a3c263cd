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
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebookincubator/clocksteer/steer"
)

// flag
var estErrorUnsyncFlag bool

func init() {
	RootCmd.AddCommand(estErrorCmd)
	estErrorCmd.Flags().BoolVar(&estErrorUnsyncFlag, "unsync", false, "mark the clock unsynchronized")
}

func runEstError(args []string) error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	if len(args) == 0 {
		est, err := h.GetErrorEstimate()
		if err != nil {
			return err
		}
		fmt.Printf("estimated error: %d ns\n", est.EstimatedErrorNS)
		fmt.Printf("maximum error: %d ns\n", est.MaximumErrorNS)
		fmt.Printf("unsynchronized: %v\n", est.Unsynchronized)
		return nil
	}

	estNS, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parsing estimated error %q: %w", args[0], err)
	}
	maxNS := estNS
	if len(args) > 1 {
		maxNS, err = strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("parsing maximum error %q: %w", args[1], err)
		}
	}
	return h.SetErrorEstimate(steer.ErrorEstimate{
		EstimatedErrorNS: estNS,
		MaximumErrorNS:   maxNS,
		Unsynchronized:   estErrorUnsyncFlag,
	})
}

var estErrorCmd = &cobra.Command{
	Use:   "esterror [estimated_ns [maximum_ns]]",
	Short: "Get the clock error estimate in nanoseconds, or set it if arguments are given",
	Args:  cobra.MaximumNArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := runEstError(args); err != nil {
			log.Fatal(err)
		}
	},
}
