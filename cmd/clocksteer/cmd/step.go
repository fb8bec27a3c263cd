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
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebookincubator/clocksteer/timeval"
)

func init() {
	RootCmd.AddCommand(stepCmd)
}

func runStep(arg string) error {
	offset, err := time.ParseDuration(arg)
	if err != nil {
		return fmt.Errorf("parsing step offset %q: %w", arg, err)
	}
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.Step(timeval.FromDuration(offset)); err != nil {
		return err
	}
	tv, _, err := h.ReadTime()
	if err != nil {
		return err
	}
	fmt.Printf("stepped by %v, clock now %s\n", offset, tv.Time())
	return nil
}

var stepCmd = &cobra.Command{
	Use:   "step <offset>",
	Short: "Step the clock by a signed offset, e.g. 100ms or -1.5s",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := runStep(args[0]); err != nil {
			log.Fatal(err)
		}
	},
}
