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

package steer

import (
	"fmt"

	"github.com/facebookincubator/clocksteer/discipline"
)

// leapStateFromClock maps the kernel clock state to the leap state machine.
// TIME_OOP is the leap second in progress, TIME_WAIT is the kernel holding
// the applied state until the status bits are cleared.
func leapStateFromClock(state discipline.State) LeapSecondState {
	switch int(state) {
	case discipline.TimeIns:
		return LeapPendingInsert
	case discipline.TimeDel:
		return LeapPendingDelete
	case discipline.TimeOOP, discipline.TimeWait:
		return LeapApplied
	default:
		return LeapNone
	}
}

// LeapStatus reports the currently observed leap-second state. The kernel
// applies an armed leap at the UTC day boundary on its own; there is no
// notification, callers poll this after the boundary.
func (h *Handle) LeapStatus() (LeapSecondState, error) {
	r, err := h.backend.readout()
	if err != nil {
		return LeapNone, classify("leap status", err)
	}
	return leapStateFromClock(r.State), nil
}

// ArmLeap schedules a leap second insertion or deletion at the end of the
// current UTC day. Arming over an already pending action overwrites it:
// exactly one of STA_INS/STA_DEL is written and the other cleared in the
// same transaction. Arming while a leap is being applied or is still held
// by the kernel fails with ErrInvalidTransition; Disarm clears that state.
func (h *Handle) ArmLeap(action LeapAction) error {
	r, err := h.backend.readout()
	if err != nil {
		return classify("arm leap", err)
	}
	if leapStateFromClock(r.State) == LeapApplied {
		return fmt.Errorf("arm leap %s in state %v: %w", action, r.State, ErrInvalidTransition)
	}
	err = h.backend.updateStatus(func(status int32) int32 {
		if action == LeapDelete {
			return status&^discipline.StaIns | discipline.StaDel
		}
		return status&^discipline.StaDel | discipline.StaIns
	})
	return classify("arm leap", err)
}

// DisarmLeap cancels a pending leap second, or clears the applied state
// after the boundary has passed. Disarming with nothing armed is a no-op.
func (h *Handle) DisarmLeap() error {
	err := h.backend.updateStatus(func(status int32) int32 {
		return status &^ (discipline.StaIns | discipline.StaDel)
	})
	return classify("disarm leap", err)
}
