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
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/clocksteer/timeval"
)

func TestOpenRealtime(t *testing.T) {
	h, err := Open(SystemRealtime())
	require.NoError(t, err)
	defer h.Close()

	caps := h.Capabilities()
	require.True(t, caps.SupportsFrequencySteering)
	require.Positive(t, caps.MaxFrequencyPPB)
	require.Negative(t, caps.MinFrequencyPPB)
	require.GreaterOrEqual(t, caps.MaxFrequencyPPB, caps.MinFrequencyPPB)
	require.False(t, caps.MaxStep.IsZero())
	require.False(t, caps.MaxStep.IsNegative())
	require.Positive(t, caps.TickResolutionNS)

	tv, _, err := h.ReadTime()
	require.NoError(t, err)
	require.NotZero(t, tv.Sec)
	require.Less(t, tv.Nsec, uint32(1000000000))

	// reading the frequency is unprivileged
	freqPPB, err := h.GetFrequencyPPB()
	require.NoError(t, err)
	require.GreaterOrEqual(t, freqPPB, caps.MinFrequencyPPB)
	require.LessOrEqual(t, freqPPB, caps.MaxFrequencyPPB)

	_, _, err = h.DisciplineStatus()
	require.NoError(t, err)
}

func TestStepUnprivileged(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("requires an unprivileged caller")
	}
	h, err := Open(SystemRealtime())
	require.NoError(t, err)
	defer h.Close()

	err = h.Step(timeval.New(1, 0))
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSetFrequencyUnprivileged(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("requires an unprivileged caller")
	}
	h, err := Open(SystemRealtime())
	require.NoError(t, err)
	defer h.Close()

	before, err := h.GetFrequencyPPB()
	require.NoError(t, err)

	_, err = h.SetFrequencyPPB(100)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// never a partial mutation; a running NTP daemon may still slew a little
	after, err := h.GetFrequencyPPB()
	require.NoError(t, err)
	require.InDelta(t, before, after, 50)
}

func TestArmLeapUnprivileged(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("requires an unprivileged caller")
	}
	h, err := Open(SystemRealtime())
	require.NoError(t, err)
	defer h.Close()

	require.ErrorIs(t, h.ArmLeap(LeapInsert), ErrPermissionDenied)
}

func TestOpenPtpDeviceNotFound(t *testing.T) {
	h, err := Open(PtpDevice("/dev/ptp-does-not-exist"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, h)
}

func TestGetTAIOffsetRealtime(t *testing.T) {
	h, err := Open(SystemRealtime())
	require.NoError(t, err)
	defer h.Close()

	// reading the TAI offset is unprivileged on Linux
	_, err = h.GetTAIOffset()
	require.NoError(t, err)
}
