//go:build freebsd && (amd64 || arm64 || riscv64)

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
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/facebookincubator/clocksteer/discipline"
	"github.com/facebookincubator/clocksteer/timeval"
)

// ntp_adjtime modes from sys/timex.h
const (
	ModOffset    uint32 = 0x0001
	ModFrequency uint32 = 0x0002
	ModMaxError  uint32 = 0x0004
	ModEstError  uint32 = 0x0008
	ModStatus    uint32 = 0x0010
	ModTimeConst uint32 = 0x0020
	ModMicro     uint32 = 0x1000
	ModNano      uint32 = 0x2000
)

// Clock IDs. The BSD NTP kernel API only disciplines the realtime clock;
// there is no TAI clock.
const (
	ClockRealtime int32 = unix.CLOCK_REALTIME
	ClockTAI      int32 = -1
)

// SupportsTAI reports whether the kernel timex state carries a TAI offset
const SupportsTAI = false

// timex layout must match sys/timex.h bit for bit. The C fields are long,
// which is 64-bit on every port this file builds for; the 32-bit ports would
// need int32 fields and are not supported.
type timex struct {
	Modes     uint32
	Offset    int64
	Freq      int64
	Maxerror  int64
	Esterror  int64
	Status    int32
	Constant  int64
	Precision int64
	Tolerance int64
	Ppsfreq   int64
	Jitter    int64
	Shift     int32
	Stabil    int64
	Jitcnt    int64
	Calcnt    int64
	Errcnt    int64
	Stbcnt    int64
}

func ntpAdjtime(tx *timex) (state int, err error) {
	r1, _, errno := unix.Syscall(unix.SYS_NTP_ADJTIME, uintptr(unsafe.Pointer(tx)), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}

// Read performs a read-only ntp_adjtime transaction and returns the
// discipline snapshot. The BSD timex carries no timestamp or TAI offset.
func Read(clockid int32) (*Readout, error) {
	if clockid != ClockRealtime {
		return nil, unix.ENOTSUP
	}
	tx := &timex{}
	state, err := ntpAdjtime(tx)
	if err != nil {
		return nil, err
	}
	return &Readout{
		FreqPPB:    ScaledPPMToPPB(tx.Freq),
		EstErrorNS: usToNS(tx.Esterror),
		MaxErrorNS: usToNS(tx.Maxerror),
		Status:     tx.Status,
		State:      discipline.State(state),
		MaxFreqPPB: ScaledPPMToPPB(tx.Tolerance),
	}, nil
}

// GetTime reads the clock via clock_gettime
func GetTime(clockid int32) (timeval.TimeValue, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(clockid, &ts); err != nil {
		return timeval.TimeValue{}, err
	}
	return timeval.New(ts.Sec, ts.Nsec), nil
}

// ResolutionNS returns the clock resolution in nanoseconds
func ResolutionNS(clockid int32) (uint32, error) {
	var ts unix.Timespec
	_, _, errno := unix.Syscall(unix.SYS_CLOCK_GETRES, uintptr(clockid), uintptr(unsafe.Pointer(&ts)), 0)
	if errno != 0 {
		return 0, errno
	}
	res := ts.Sec*timeval.NsecPerSec + ts.Nsec
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
// the kernel actually accepted, read back from the same transaction
func AdjFreqPPB(clockid int32, freqPPB float64, hold bool) (actualPPB float64, state discipline.State, err error) {
	if clockid != ClockRealtime {
		return 0, 0, unix.ENOTSUP
	}
	tx := &timex{}
	tx.Freq = PPBToScaledPPM(freqPPB)
	tx.Modes = ModFrequency
	if hold {
		tx.Modes |= ModStatus
		tx.Status = discipline.StaFreqHold
	}
	st, err := ntpAdjtime(tx)
	if err != nil {
		return 0, 0, err
	}
	return ScaledPPMToPPB(tx.Freq), discipline.State(st), nil
}

// Step steps the clock by the given signed offset. The BSD NTP API has no
// one-shot offset mode, so this is a read-modify-write of the clock itself.
func Step(clockid int32, step timeval.TimeValue) (state discipline.State, err error) {
	now, err := GetTime(clockid)
	if err != nil {
		return 0, err
	}
	target := now.Add(step)
	ts := unix.Timespec{Sec: target.Sec, Nsec: int64(target.Nsec)}
	_, _, errno := unix.Syscall(unix.SYS_CLOCK_SETTIME, uintptr(clockid), uintptr(unsafe.Pointer(&ts)), 0)
	if errno != 0 {
		return 0, errno
	}
	r, err := Read(clockid)
	if err != nil {
		return 0, err
	}
	return r.State, nil
}

// SetTAIOffset is not available through the BSD NTP kernel API
func SetTAIOffset(clockid int32, offset int32) error {
	return unix.ENOTSUP
}

// SetErrorEstimate sets the kernel estimated and maximum time error.
// The timex fields are in microseconds.
func SetErrorEstimate(clockid int32, estErrorNS, maxErrorNS uint64) error {
	if clockid != ClockRealtime {
		return unix.ENOTSUP
	}
	tx := &timex{}
	tx.Modes = ModEstError | ModMaxError
	tx.Esterror = int64(estErrorNS / 1000)
	tx.Maxerror = int64(maxErrorNS / 1000)
	_, err := ntpAdjtime(tx)
	return err
}

// UpdateStatus applies a read-modify-write transaction to the status bits
func UpdateStatus(clockid int32, update func(status int32) int32) (discipline.State, error) {
	if clockid != ClockRealtime {
		return 0, unix.ENOTSUP
	}
	tx := &timex{}
	if _, err := ntpAdjtime(tx); err != nil {
		return 0, err
	}
	wtx := &timex{}
	wtx.Modes = ModStatus
	wtx.Status = update(tx.Status)
	st, err := ntpAdjtime(wtx)
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
