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

// Package kernclock contains a wrapper around the kernel NTP discipline API
// (clock_adjtime on Linux, ntp_adjtime on the BSDs).
//
// It allows interactions with supported clocks, such as the system realtime
// clock or a PHC, addressed by clock ID. All frequency values are in PPB and
// all time values carry nanosecond precision; the platform-specific unit
// scales of the timex ABI (scaled ppm, microsecond error fields, the
// STA_NANO readback convention) are confined to this package.
package kernclock

import (
	"math"

	"github.com/facebookincubator/clocksteer/discipline"
	"github.com/facebookincubator/clocksteer/timeval"
)

// PPBToTimexPPM is what we use to convert PPB to the timex frequency unit.
// man clock_adjtime(2):
// In struct timex, freq, ppsfreq, and stabil are ppm (parts per million) with a 16-bit fractional part.
// To convert value where 2^16=65536 is 1 ppm to ppb or back, we need this multiplier
const PPBToTimexPPM = 65.536

// DefaultMaxFreqPPB is used when the kernel reports no tolerance.
// Value came from linuxptp project (clockadj.c)
const DefaultMaxFreqPPB = 500000.0

// PPBToScaledPPM converts parts per billion to the timex scaled-ppm encoding,
// rounding to the nearest representable value
func PPBToScaledPPM(freqPPB float64) int64 {
	return int64(math.Round(freqPPB * PPBToTimexPPM))
}

// ScaledPPMToPPB converts the timex scaled-ppm encoding to parts per billion
func ScaledPPMToPPB(scaled int64) float64 {
	return float64(scaled) / PPBToTimexPPM
}

// the timex esterror/maxerror fields are in microseconds
func usToNS(us int64) uint64 {
	if us <= 0 {
		return 0
	}
	return uint64(us) * 1000
}

// Readout is a single-syscall snapshot of the kernel clock-discipline state.
// Not every backend populates every field: hardware clocks typically report
// frequency but no timestamp, and only Linux carries a TAI offset.
type Readout struct {
	Time       timeval.TimeValue
	HasTime    bool
	FreqPPB    float64
	EstErrorNS uint64
	MaxErrorNS uint64
	Status     int32
	State      discipline.State
	TAIOffset  int32
	HasTAI     bool
	// MaxFreqPPB is the kernel-declared frequency tolerance, 0 when unknown
	MaxFreqPPB float64
}
