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

// Package discipline decodes the kernel clock-discipline status bitmask and
// clock state codes into named representations.
//
// The bit positions below come from the timex ABI (usr/include/linux/timex.h
// and sys/timex.h on the BSDs, where the values are identical). They are
// declared here rather than taken from golang.org/x/sys/unix so the codec
// stays pure and testable on every platform.
package discipline

import "strings"

// Status bits of the timex status field
const (
	StaPLL       int32 = 0x0001 // enable PLL updates (rw)
	StaPPSFreq   int32 = 0x0002 // enable PPS freq discipline (rw)
	StaPPSTime   int32 = 0x0004 // enable PPS time discipline (rw)
	StaFLL       int32 = 0x0008 // select frequency-lock mode (rw)
	StaIns       int32 = 0x0010 // insert leap (rw)
	StaDel       int32 = 0x0020 // delete leap (rw)
	StaUnsync    int32 = 0x0040 // clock unsynchronized (rw)
	StaFreqHold  int32 = 0x0080 // hold frequency (rw)
	StaPPSSignal int32 = 0x0100 // PPS signal present (ro)
	StaPPSJitter int32 = 0x0200 // PPS signal jitter exceeded (ro)
	StaPPSWander int32 = 0x0400 // PPS signal wander exceeded (ro)
	StaPPSError  int32 = 0x0800 // PPS signal calibration error (ro)
	StaClockErr  int32 = 0x1000 // clock hardware fault (ro)
	StaNano      int32 = 0x2000 // resolution (0 = us, 1 = ns) (ro)
	StaMode      int32 = 0x4000 // mode (0 = PLL, 1 = FLL) (ro)
	StaClk       int32 = 0x8000 // clock source (0 = A, 1 = B) (ro)
)

// Clock states returned by adjtimex/ntp_adjtime
const (
	TimeOK    int = 0 // clock synchronized, no leap second pending
	TimeIns   int = 1 // leap second insert pending
	TimeDel   int = 2 // leap second delete pending
	TimeOOP   int = 3 // leap second in progress
	TimeWait  int = 4 // leap second has occurred
	TimeError int = 5 // clock not synchronized
)

// Mode is the kernel discipline operating mode reported by StaMode
type Mode int

// Operating modes
const (
	ModePLL Mode = iota
	ModeFLL
)

func (m Mode) String() string {
	if m == ModeFLL {
		return "FLL"
	}
	return "PLL"
}

// Status is the structured view of the timex status bitmask.
// It is derived read-only state: changes happen through frequency steering,
// stepping or leap scheduling and are only observed here.
type Status struct {
	Mode           Mode
	PLL            bool // kernel PLL updates enabled
	FLL            bool // frequency-lock mode selected
	PPSFrequency   bool // PPS frequency discipline enabled
	PPSTime        bool // PPS time discipline enabled
	LeapInsert     bool // leap second insertion armed
	LeapDelete     bool // leap second deletion armed
	Unsynchronized bool // clock considered unsynchronized
	FrequencyHold  bool // frequency held during offset corrections
	PPSSignal      bool // PPS signal present
	PPSJitter      bool // PPS signal jitter exceeded
	PPSWander      bool // PPS signal wander exceeded
	PPSError       bool // PPS signal calibration error
	ClockError     bool // clock hardware fault
	Nanoseconds    bool // time values carry nanosecond resolution
	ClockSourceB   bool // clock source B selected
}

// Decode turns a raw timex status bitmask into a Status
func Decode(raw int32) Status {
	return Status{
		Mode:           Mode(raw & StaMode >> 14),
		PLL:            raw&StaPLL != 0,
		FLL:            raw&StaFLL != 0,
		PPSFrequency:   raw&StaPPSFreq != 0,
		PPSTime:        raw&StaPPSTime != 0,
		LeapInsert:     raw&StaIns != 0,
		LeapDelete:     raw&StaDel != 0,
		Unsynchronized: raw&StaUnsync != 0,
		FrequencyHold:  raw&StaFreqHold != 0,
		PPSSignal:      raw&StaPPSSignal != 0,
		PPSJitter:      raw&StaPPSJitter != 0,
		PPSWander:      raw&StaPPSWander != 0,
		PPSError:       raw&StaPPSError != 0,
		ClockError:     raw&StaClockErr != 0,
		Nanoseconds:    raw&StaNano != 0,
		ClockSourceB:   raw&StaClk != 0,
	}
}

// Encode is the inverse of Decode
func (s Status) Encode() int32 {
	var raw int32
	for _, f := range []struct {
		set bool
		bit int32
	}{
		{s.PLL, StaPLL},
		{s.PPSFrequency, StaPPSFreq},
		{s.PPSTime, StaPPSTime},
		{s.FLL, StaFLL},
		{s.LeapInsert, StaIns},
		{s.LeapDelete, StaDel},
		{s.Unsynchronized, StaUnsync},
		{s.FrequencyHold, StaFreqHold},
		{s.PPSSignal, StaPPSSignal},
		{s.PPSJitter, StaPPSJitter},
		{s.PPSWander, StaPPSWander},
		{s.PPSError, StaPPSError},
		{s.ClockError, StaClockErr},
		{s.Nanoseconds, StaNano},
		{s.Mode == ModeFLL, StaMode},
		{s.ClockSourceB, StaClk},
	} {
		if f.set {
			raw |= f.bit
		}
	}
	return raw
}

func (s Status) String() string {
	var labels []string
	for _, f := range []struct {
		set   bool
		label string
	}{
		{s.PLL, "STA_PLL"},
		{s.PPSFrequency, "STA_PPSFREQ"},
		{s.PPSTime, "STA_PPSTIME"},
		{s.FLL, "STA_FLL"},
		{s.LeapInsert, "STA_INS"},
		{s.LeapDelete, "STA_DEL"},
		{s.Unsynchronized, "STA_UNSYNC"},
		{s.FrequencyHold, "STA_FREQHOLD"},
		{s.PPSSignal, "STA_PPSSIGNAL"},
		{s.PPSJitter, "STA_PPSJITTER"},
		{s.PPSWander, "STA_PPSWANDER"},
		{s.PPSError, "STA_PPSERROR"},
		{s.ClockError, "STA_CLOCKERR"},
		{s.Nanoseconds, "STA_NANO"},
		{s.Mode == ModeFLL, "STA_MODE"},
		{s.ClockSourceB, "STA_CLK"},
	} {
		if f.set {
			labels = append(labels, f.label)
		}
	}
	return strings.Join(labels, " | ")
}

// State is the clock state code returned alongside every timex transaction
type State int

func (s State) String() string {
	switch int(s) {
	case TimeOK:
		return "TIME_OK"
	case TimeIns:
		return "TIME_INS"
	case TimeDel:
		return "TIME_DEL"
	case TimeOOP:
		return "TIME_OOP"
	case TimeWait:
		return "TIME_WAIT"
	case TimeError:
		return "TIME_ERROR"
	default:
		return "TIME_UNKNOWN"
	}
}
