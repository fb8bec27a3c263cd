//go:build linux && !386

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
)

func setFreq(tx *unix.Timex, freqPPB float64) {
	// man(2) clock_adjtime, turn ppb into scaled ppm
	tx.Freq = PPBToScaledPPM(freqPPB)
}

func setTime(tx *unix.Timex, sec, nsec int64) {
	tx.Time.Sec = sec
	// with ADJ_NANO the usec field carries nanoseconds
	tx.Time.Usec = nsec
}

func setConstant(tx *unix.Timex, v int64) {
	tx.Constant = v
}

func setError(tx *unix.Timex, estErrorUS, maxErrorUS int64) {
	tx.Esterror = estErrorUS
	tx.Maxerror = maxErrorUS
}
