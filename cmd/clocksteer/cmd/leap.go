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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebookincubator/clocksteer/steer"
)

func init() {
	RootCmd.AddCommand(leapCmd)
	leapCmd.AddCommand(leapStatusCmd)
	leapCmd.AddCommand(leapInsertCmd)
	leapCmd.AddCommand(leapDeleteCmd)
	leapCmd.AddCommand(leapDisarmCmd)
}

func runLeapStatus() error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	state, err := h.LeapStatus()
	if err != nil {
		return err
	}
	fmt.Println(state)
	return nil
}

func runLeapArm(action steer.LeapAction) error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.ArmLeap(action); err != nil {
		return err
	}
	log.Infof("armed leap second %s at the end of the current UTC day", action)
	return nil
}

func runLeapDisarm() error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	return h.DisarmLeap()
}

var leapCmd = &cobra.Command{
	Use:   "leap",
	Short: "Inspect and schedule leap seconds",
}

var leapStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current leap second state",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runLeapStatus(); err != nil {
			log.Fatal(err)
		}
	},
}

var leapInsertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Arm a leap second insertion at the end of the current UTC day",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runLeapArm(steer.LeapInsert); err != nil {
			log.Fatal(err)
		}
	},
}

var leapDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Arm a leap second deletion at the end of the current UTC day",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runLeapArm(steer.LeapDelete); err != nil {
			log.Fatal(err)
		}
	},
}

var leapDisarmCmd = &cobra.Command{
	Use:   "disarm",
	Short: "Cancel a pending leap second or clear the applied state",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := runLeapDisarm(); err != nil {
			log.Fatal(err)
		}
	},
}
