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
)

// flag
var freqHoldFlag bool

func init() {
	RootCmd.AddCommand(freqCmd)
	freqCmd.Flags().BoolVar(&freqHoldFlag, "hold", false, "hold frequency during kernel offset corrections (STA_FREQHOLD)")
}

func runFreq(args []string) error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	if len(args) == 0 {
		freqPPB, err := h.GetFrequencyPPB()
		if err != nil {
			return err
		}
		fmt.Printf("%.3f\n", freqPPB)
		return nil
	}

	freqPPB, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("parsing frequency %q: %w", args[0], err)
	}
	h.HoldFrequency(freqHoldFlag)
	actual, err := h.SetFrequencyPPB(freqPPB)
	if err != nil {
		return err
	}
	// the kernel rounds to scaled ppm, report what it accepted
	fmt.Printf("%.3f\n", actual)
	return nil
}

var freqCmd = &cobra.Command{
	Use:   "freq [ppb]",
	Short: "Get the clock frequency offset in PPB, or set it if an argument is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := runFreq(args); err != nil {
			log.Fatal(err)
		}
	},
}
