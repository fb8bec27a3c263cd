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

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebookincubator/clocksteer/discipline"
)

var onString = color.GreenString("[ ON ]")
var offString = "[ off]"
var alarmString = color.RedString("[FAIL]")

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.AddCommand(statusDisableCmd)
	statusCmd.AddCommand(statusEnableCmd)
}

func flagString(set bool) string {
	if set {
		return onString
	}
	return offString
}

// alarmFlagString is for read-only fault bits where set means trouble
func alarmFlagString(set bool) string {
	if set {
		return alarmString
	}
	return offString
}

func printStatus(status discipline.Status, state discipline.State) {
	fmt.Printf("clock state: %v\n", state)
	fmt.Printf("discipline mode: %v\n", status.Mode)
	for _, f := range []struct {
		label string
		value string
	}{
		{"kernel PLL updates", flagString(status.PLL)},
		{"frequency-lock mode", flagString(status.FLL)},
		{"PPS frequency discipline", flagString(status.PPSFrequency)},
		{"PPS time discipline", flagString(status.PPSTime)},
		{"leap second insert armed", flagString(status.LeapInsert)},
		{"leap second delete armed", flagString(status.LeapDelete)},
		{"unsynchronized", alarmFlagString(status.Unsynchronized)},
		{"frequency hold", flagString(status.FrequencyHold)},
		{"PPS signal present", flagString(status.PPSSignal)},
		{"PPS jitter exceeded", alarmFlagString(status.PPSJitter)},
		{"PPS wander exceeded", alarmFlagString(status.PPSWander)},
		{"PPS calibration error", alarmFlagString(status.PPSError)},
		{"clock hardware fault", alarmFlagString(status.ClockError)},
		{"nanosecond resolution", flagString(status.Nanoseconds)},
	} {
		fmt.Printf("%s %s\n", f.value, f.label)
	}
}

func runStatus() error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	status, state, err := h.DisciplineStatus()
	if err != nil {
		return err
	}
	printStatus(status, state)
	return nil
}

func runStatusDisable() error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.DisableKernelDiscipline(); err != nil {
		return err
	}
	log.Info("kernel discipline disabled, the clock is free-running")
	return nil
}

func runStatusEnable() error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.EnableKernelDiscipline(); err != nil {
		return err
	}
	log.Info("kernel discipline enabled")
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the kernel clock discipline status",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runStatus(); err != nil {
			log.Fatal(err)
		}
	},
}

var statusDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable kernel clock discipline so only explicit steering moves the clock",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runStatusDisable(); err != nil {
			log.Fatal(err)
		}
	},
}

var statusEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Re-enable kernel clock discipline",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runStatusEnable(); err != nil {
			log.Fatal(err)
		}
	},
}
