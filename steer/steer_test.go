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
	"errors"
	"io/fs"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/facebookincubator/clocksteer/discipline"
	"github.com/facebookincubator/clocksteer/kernclock"
	"github.com/facebookincubator/clocksteer/timeval"
)

// fakeBackend records operations so contract logic can be tested without a
// live kernel
type fakeBackend struct {
	now        timeval.TimeValue
	freqPPB    float64
	status     int32
	state      discipline.State
	hasTAI     bool
	taiOffset  int32
	estNS      uint64
	maxNS      uint64
	adjCalls   int
	stepCalls  int
	adjErr     error
	readoutErr error
}

func (b *fakeBackend) readTime() (timeval.TimeValue, ErrorEstimate, error) {
	return b.now, ErrorEstimate{EstimatedErrorNS: b.estNS, MaximumErrorNS: b.maxNS}, nil
}

func (b *fakeBackend) frequencyPPB() (float64, error) {
	return b.freqPPB, nil
}

func (b *fakeBackend) adjFreqPPB(freqPPB float64, _ bool) (float64, error) {
	b.adjCalls++
	if b.adjErr != nil {
		return 0, b.adjErr
	}
	// model the scaled-ppm quantization of a real kernel
	b.freqPPB = kernclock.ScaledPPMToPPB(kernclock.PPBToScaledPPM(freqPPB))
	return b.freqPPB, nil
}

func (b *fakeBackend) step(offset timeval.TimeValue) error {
	b.stepCalls++
	b.now = b.now.Add(offset)
	return nil
}

func (b *fakeBackend) readout() (*kernclock.Readout, error) {
	if b.readoutErr != nil {
		return nil, b.readoutErr
	}
	return &kernclock.Readout{
		Time:       b.now,
		HasTime:    true,
		FreqPPB:    b.freqPPB,
		EstErrorNS: b.estNS,
		MaxErrorNS: b.maxNS,
		Status:     b.status,
		State:      b.state,
		TAIOffset:  b.taiOffset,
		HasTAI:     b.hasTAI,
	}, nil
}

func (b *fakeBackend) updateStatus(update func(status int32) int32) error {
	b.status = update(b.status)
	return nil
}

func (b *fakeBackend) setTAIOffset(offset int32) error {
	if !b.hasTAI {
		return unix.ENOTSUP
	}
	b.taiOffset = offset
	return nil
}

func (b *fakeBackend) setErrorEstimate(estErrorNS, maxErrorNS uint64) error {
	b.estNS = estErrorNS
	b.maxNS = maxErrorNS
	return nil
}

func (b *fakeBackend) close() error {
	return nil
}

func fakeHandle(b *fakeBackend) *Handle {
	return &Handle{
		selector: SystemRealtime(),
		backend:  b,
		caps: Capabilities{
			SupportsFrequencySteering: true,
			MaxFrequencyPPB:           500000,
			MinFrequencyPPB:           -500000,
			MaxStep:                   timeval.New(1, 0),
			TickResolutionNS:          1,
		},
	}
}

func TestParseSelector(t *testing.T) {
	sel, err := ParseSelector("realtime")
	require.NoError(t, err)
	require.Equal(t, SystemRealtime(), sel)

	sel, err = ParseSelector("tai")
	require.NoError(t, err)
	require.Equal(t, SystemTAI(), sel)

	sel, err = ParseSelector("/dev/ptp0")
	require.NoError(t, err)
	require.Equal(t, PtpDevice("/dev/ptp0"), sel)
	require.Equal(t, "/dev/ptp0", sel.String())

	_, err = ParseSelector("monotonic")
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		raw  error
		want error
	}{
		{unix.EPERM, ErrPermissionDenied},
		{unix.EACCES, ErrPermissionDenied},
		{unix.ENOENT, ErrNotFound},
		{unix.ENODEV, ErrNotFound},
		{unix.ENOTSUP, ErrUnsupported},
		{unix.ENOTTY, ErrUnsupported},
		{unix.EINVAL, ErrUnsupported},
		{unix.ERANGE, ErrOutOfRange},
		{&fs.PathError{Op: "open", Path: "/dev/ptp9", Err: fs.ErrNotExist}, ErrNotFound},
		{&fs.PathError{Op: "open", Path: "/dev/ptp0", Err: fs.ErrPermission}, ErrPermissionDenied},
	}
	for _, tc := range testCases {
		require.ErrorIs(t, classify("op", tc.raw), tc.want, "classify(%v)", tc.raw)
	}
	require.NoError(t, classify("op", nil))

	// anything else is a backend failure that keeps the raw error
	raw := unix.EIO
	got := classify("op", raw)
	require.Error(t, got)
	require.ErrorIs(t, got, raw)
	for _, sentinel := range []error{ErrPermissionDenied, ErrNotFound, ErrUnsupported, ErrOutOfRange} {
		require.NotErrorIs(t, got, sentinel)
	}
}

func TestSetFrequencyReadBack(t *testing.T) {
	b := &fakeBackend{}
	h := fakeHandle(b)

	actual, err := h.SetFrequencyPPB(1234.5)
	require.NoError(t, err)
	require.InDelta(t, 1234.5, actual, 0.01)

	// idempotent read-back: get returns exactly what set reported
	got, err := h.GetFrequencyPPB()
	require.NoError(t, err)
	require.Equal(t, actual, got)
}

func TestSetFrequencyOutOfRange(t *testing.T) {
	b := &fakeBackend{freqPPB: 42}
	h := fakeHandle(b)

	_, err := h.SetFrequencyPPB(500001)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = h.SetFrequencyPPB(-500001)
	require.ErrorIs(t, err, ErrOutOfRange)

	// no partial effect: the backend was never called
	require.Equal(t, 0, b.adjCalls)
	got, err := h.GetFrequencyPPB()
	require.NoError(t, err)
	require.Equal(t, 42.0, got)
}

func TestSetFrequencyNonFinite(t *testing.T) {
	b := &fakeBackend{freqPPB: 42}
	h := fakeHandle(b)

	for _, freqPPB := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := h.SetFrequencyPPB(freqPPB)
		require.ErrorIs(t, err, ErrOutOfRange, "SetFrequencyPPB(%f)", freqPPB)
	}
	require.Equal(t, 0, b.adjCalls)
}

func TestSetFrequencyUnsupported(t *testing.T) {
	b := &fakeBackend{}
	h := fakeHandle(b)
	h.caps.SupportsFrequencySteering = false

	_, err := h.SetFrequencyPPB(1)
	require.ErrorIs(t, err, ErrUnsupported)
	require.Equal(t, 0, b.adjCalls)
}

func TestStepValidatesMaxStep(t *testing.T) {
	b := &fakeBackend{now: timeval.New(1000, 0)}
	h := fakeHandle(b)

	require.NoError(t, h.Step(timeval.New(0, 500000000)))
	require.NoError(t, h.Step(timeval.New(0, 500000000).Neg()))
	require.Equal(t, 2, b.stepCalls)
	require.Equal(t, timeval.New(1000, 0), b.now)

	err := h.Step(timeval.New(2, 0))
	require.ErrorIs(t, err, ErrOutOfRange)
	err = h.Step(timeval.New(2, 0).Neg())
	require.ErrorIs(t, err, ErrOutOfRange)
	require.Equal(t, 2, b.stepCalls)
}

func TestLeapStateMachine(t *testing.T) {
	b := &fakeBackend{state: discipline.State(discipline.TimeOK)}
	h := fakeHandle(b)

	state, err := h.LeapStatus()
	require.NoError(t, err)
	require.Equal(t, LeapNone, state)

	require.NoError(t, h.ArmLeap(LeapInsert))
	require.Equal(t, discipline.StaIns, b.status&(discipline.StaIns|discipline.StaDel))
	// the kernel would now report TIME_INS
	b.state = discipline.State(discipline.TimeIns)
	state, err = h.LeapStatus()
	require.NoError(t, err)
	require.Equal(t, LeapPendingInsert, state)

	// re-arming overwrites, last writer wins
	require.NoError(t, h.ArmLeap(LeapDelete))
	require.Equal(t, discipline.StaDel, b.status&(discipline.StaIns|discipline.StaDel))
	b.state = discipline.State(discipline.TimeDel)
	state, err = h.LeapStatus()
	require.NoError(t, err)
	require.Equal(t, LeapPendingDelete, state)

	require.NoError(t, h.DisarmLeap())
	require.Zero(t, b.status&(discipline.StaIns|discipline.StaDel))
	b.state = discipline.State(discipline.TimeOK)
	state, err = h.LeapStatus()
	require.NoError(t, err)
	require.Equal(t, LeapNone, state)
}

func TestArmLeapWhileApplied(t *testing.T) {
	for _, clockState := range []int{discipline.TimeOOP, discipline.TimeWait} {
		b := &fakeBackend{state: discipline.State(clockState)}
		h := fakeHandle(b)

		state, err := h.LeapStatus()
		require.NoError(t, err)
		require.Equal(t, LeapApplied, state)

		err = h.ArmLeap(LeapInsert)
		require.ErrorIs(t, err, ErrInvalidTransition)
		require.Zero(t, b.status&discipline.StaIns)
	}
}

func TestErrorEstimate(t *testing.T) {
	b := &fakeBackend{}
	h := fakeHandle(b)

	err := h.SetErrorEstimate(ErrorEstimate{EstimatedErrorNS: 1000, MaximumErrorNS: 5000, Unsynchronized: true})
	require.NoError(t, err)
	require.NotZero(t, b.status&discipline.StaUnsync)

	got, err := h.GetErrorEstimate()
	require.NoError(t, err)
	require.Equal(t, uint64(1000), got.EstimatedErrorNS)
	require.Equal(t, uint64(5000), got.MaximumErrorNS)
	require.True(t, got.Unsynchronized)

	err = h.SetErrorEstimate(ErrorEstimate{EstimatedErrorNS: 2000, MaximumErrorNS: 5000})
	require.NoError(t, err)
	got, err = h.GetErrorEstimate()
	require.NoError(t, err)
	require.False(t, got.Unsynchronized)

	err = h.SetErrorEstimate(ErrorEstimate{EstimatedErrorNS: 6000, MaximumErrorNS: 5000})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestTAIOffset(t *testing.T) {
	b := &fakeBackend{hasTAI: true, taiOffset: 37}
	h := fakeHandle(b)

	offset, err := h.GetTAIOffset()
	require.NoError(t, err)
	require.Equal(t, int32(37), offset)

	require.NoError(t, h.SetTAIOffset(38))
	offset, err = h.GetTAIOffset()
	require.NoError(t, err)
	require.Equal(t, int32(38), offset)

	b.hasTAI = false
	_, err = h.GetTAIOffset()
	require.ErrorIs(t, err, ErrUnsupported)
	require.ErrorIs(t, h.SetTAIOffset(39), ErrUnsupported)
}

func TestDisciplineStatus(t *testing.T) {
	b := &fakeBackend{
		status: discipline.StaPLL | discipline.StaUnsync,
		state:  discipline.State(discipline.TimeError),
	}
	h := fakeHandle(b)

	status, state, err := h.DisciplineStatus()
	require.NoError(t, err)
	require.True(t, status.PLL)
	require.True(t, status.Unsynchronized)
	require.Equal(t, discipline.ModePLL, status.Mode)
	require.Equal(t, "TIME_ERROR", state.String())
}

func TestDisableKernelDiscipline(t *testing.T) {
	b := &fakeBackend{status: discipline.StaPLL | discipline.StaFLL | discipline.StaPPSTime}
	h := fakeHandle(b)

	require.NoError(t, h.DisableKernelDiscipline())
	require.Zero(t, b.status&(discipline.StaPLL|discipline.StaFLL|discipline.StaPPSTime|discipline.StaPPSFreq))

	require.NoError(t, h.EnableKernelDiscipline())
	require.NotZero(t, b.status&discipline.StaPLL)
	require.Zero(t, b.status&discipline.StaFLL)
}

func TestReadoutFailurePropagates(t *testing.T) {
	b := &fakeBackend{readoutErr: errors.New("boom")}
	h := fakeHandle(b)

	_, err := h.LeapStatus()
	require.Error(t, err)
	_, _, err = h.DisciplineStatus()
	require.Error(t, err)
}

func TestLeapStateFromClock(t *testing.T) {
	testCases := []struct {
		state int
		want  LeapSecondState
	}{
		{discipline.TimeOK, LeapNone},
		{discipline.TimeIns, LeapPendingInsert},
		{discipline.TimeDel, LeapPendingDelete},
		{discipline.TimeOOP, LeapApplied},
		{discipline.TimeWait, LeapApplied},
		{discipline.TimeError, LeapNone},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, leapStateFromClock(discipline.State(tc.state)), "state %d", tc.state)
	}
}
