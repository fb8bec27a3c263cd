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

func init() {
	RootCmd.AddCommand(taiCmd)
}

func runTAI(args []string) error {
	h, err := openClock()
	if err != nil {
		return err
	}
	defer h.Close()

	if len(args) == 0 {
		offset, err := h.GetTAIOffset()
		if err != nil {
			return err
		}
		fmt.Println(offset)
		return nil
	}

	offset, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("parsing TAI offset %q: %w", args[0], err)
	}
	return h.SetTAIOffset(int32(offset))
}

var taiCmd = &cobra.Command{
	Use:   "tai [offset]",
	Short: "Get the TAI-UTC offset in seconds, or set it if an argument is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := runTAI(args); err != nil {
			log.Fatal(err)
		}
	},
}
