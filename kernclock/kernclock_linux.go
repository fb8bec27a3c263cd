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

package kernclock

import (
	"golang.org/x/sys/unix"

	"github.com/facebookincubator/clocksteer/discipline"
	"github.com/facebookincubator/clocksteer/timeval"
)

// clock_adjtime modes from usr/include/linux/timex.h
const (
	// time offset
	AdjOffset uint32 = 0x0001
	// frequency offset
	AdjFrequency uint32 = 0x0002
	// maximum time error
	AdjMaxError uint32 = 0x0004
	// estimated time error
	AdjEstError uint32 = 0x0008
	// clock status
	AdjStatus uint32 = 0x0010
	// pll time constant
	AdjTimeConst uint32 = 0x0020
	// set TAI offset
	AdjTAI uint32 = 0x0080
	// add 'time' to current time
	AdjSetOffset uint32 = 0x0100
	// select microsecond resolution
	AdjMicro uint32 = 0x1000
	// select nanosecond resolution
	AdjNano uint32 = 0x2000
	// tick value
	AdjTick uint32 = 0x4000
)

// Well-known clock IDs usable with every function in this package
const (
	ClockRealtime int32 = unix.CLOCK_REALTIME
	ClockTAI      int32 = unix.CLOCK_TAI
)

// SupportsTAI reports whether the kernel timex state carries a TAI offset
const SupportsTAI = true

// Read performs a read-only timex transaction and returns the full
// discipline snapshot. It is unprivileged.
func Read(clockid int32) (*Readout, error) {
	tx := &unix.Timex{}
	state, err := unix.ClockAdjtime(clockid, tx)
	if err != nil {
		return nil, err
	}
	r := &Readout{
		FreqPPB:    ScaledPPMToPPB(int64(tx.Freq)),
		EstErrorNS: usToNS(int64(tx.Esterror)),
		MaxErrorNS: usToNS(int64(tx.Maxerror)),
		Status:     tx.Status,
		State:      discipline.State(state),
		TAIOffset:  tx.Tai,
		HasTAI:     true,
		MaxFreqPPB: ScaledPPMToPPB(int64(tx.Tolerance)),
	}
	// hardware clocks may not report the timestamp
	if tx.Time.Sec != 0 || tx.Time.Usec != 0 {
		r.HasTime = true
		// the STA_NANO status bit determines the resolution of the time field
		if tx.Status&discipline.StaNano != 0 {
			r.Time = timeval.New(int64(tx.Time.Sec), int64(tx.Time.Usec))
		} else {
			r.Time = timeval.New(int64(tx.Time.Sec), int64(tx.Time.Usec)*1000)
		}
	}
	return r, nil
}

// GetTime reads the clock via clock_gettime, always nanosecond resolution
func GetTime(clockid int32) (timeval.TimeValue, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(clockid, &ts); err != nil {
		return timeval.TimeValue{}, err
	}
	return timeval.New(int64(ts.Sec), int64(ts.Nsec)), nil
}

// ResolutionNS returns the clock resolution in nanoseconds
func ResolutionNS(clockid int32) (uint32, error) {
	var ts unix.Timespec
	if err := unix.ClockGetres(clockid, &ts); err != nil {
		return 0, err
	}
	res := int64(ts.Sec)*timeval.NsecPerSec + int64(ts.Nsec)
	if res <= 0 || res > int64(^uint32(0)) {
		res = 1
	}
	return uint32(res), nil
}

// FrequencyPPB reads the clock frequency offset in PPB
func FrequencyPPB(clockid int32) (freqPPB float64, state discipline.State, err error) {
	r, err := Read(clockid)
	if err != nil {
		return 0, 0, err
	}
	return r.FreqPPB, r.State, nil
}

// AdjFreqPPB adjusts the clock frequency offset in PPB and returns the value
// the kernel actually accepted, read back from the same transaction.
// With hold set, STA_FREQHOLD is raised so later offset corrections do not
// bleed into the frequency.
func AdjFreqPPB(clockid int32, freqPPB float64, hold bool) (actualPPB float64, state discipline.State, err error) {
	tx := &unix.Timex{}
	setFreq(tx, freqPPB)
	tx.Modes = AdjFrequency
	if hold {
		tx.Modes |= AdjStatus
		tx.Status = discipline.StaFreqHold
	}
	st, err := unix.ClockAdjtime(clockid, tx)
	if err != nil {
		return 0, 0, err
	}
	return ScaledPPMToPPB(int64(tx.Freq)), discipline.State(st), nil
}

// Step steps the clock by the given signed offset in a single transaction
func Step(clockid int32, step timeval.TimeValue) (state discipline.State, err error) {
	tx := &unix.Timex{}
	tx.Modes = AdjSetOffset | AdjNano
	/*
	 * The value of a timeval is the sum of its fields, but the
	 * field tv_usec must always be non-negative. TimeValue carries
	 * exactly that normalization already.
	 */
	setTime(tx, step.Sec, int64(step.Nsec))
	st, err := unix.ClockAdjtime(clockid, tx)
	if err != nil {
		return 0, err
	}
	return discipline.State(st), nil
}

// SetTAIOffset sets the kernel TAI-UTC offset in seconds
func SetTAIOffset(clockid int32, offset int32) error {
	tx := &unix.Timex{}
	tx.Modes = AdjTAI
	setConstant(tx, int64(offset))
	_, err := unix.ClockAdjtime(clockid, tx)
	return err
}

// SetErrorEstimate sets the kernel estimated and maximum time error.
// The timex fields are in microseconds.
func SetErrorEstimate(clockid int32, estErrorNS, maxErrorNS uint64) error {
	tx := &unix.Timex{}
	tx.Modes = AdjEstError | AdjMaxError
	setError(tx, int64(estErrorNS/1000), int64(maxErrorNS/1000))
	_, err := unix.ClockAdjtime(clockid, tx)
	return err
}

// UpdateStatus applies a read-modify-write transaction to the status bits
func UpdateStatus(clockid int32, update func(status int32) int32) (discipline.State, error) {
	tx := &unix.Timex{}
	if _, err := unix.ClockAdjtime(clockid, tx); err != nil {
		return 0, err
	}
	wtx := &unix.Timex{}
	wtx.Modes = AdjStatus
	wtx.Status = update(tx.Status)
	st, err := unix.ClockAdjtime(clockid, wtx)
	if err != nil {
		return 0, err
	}
	return discipline.State(st), nil
}

// MaxFreqPPB returns the maximum frequency adjustment supported by the clock
func MaxFreqPPB(clockid int32) (float64, error) {
	r, err := Read(clockid)
	if err != nil {
		return 0, err
	}
	if r.MaxFreqPPB == 0 {
		return DefaultMaxFreqPPB, nil
	}
	return r.MaxFreqPPB, nil
}
