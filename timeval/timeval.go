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

// Package timeval provides the signed nanosecond-precision time value used
// by all clock backends, independent of calendar representation.
package timeval

import (
	"fmt"
	"time"
)

// NsecPerSec is the number of nanoseconds in a second
const NsecPerSec = int64(time.Second)

// TimeValue is a signed duration or instant with nanosecond precision.
// Nsec is always in [0, 1e9) regardless of the sign of Sec, so for example
// -1.5s is represented as {Sec: -2, Nsec: 500000000}. The value of a
// TimeValue is always Sec*1e9 + Nsec nanoseconds.
type TimeValue struct {
	Sec  int64
	Nsec uint32
}

// New builds a normalized TimeValue from an arbitrary seconds/nanoseconds
// pair. The nanosecond argument may be negative or exceed a second.
func New(sec, nsec int64) TimeValue {
	sec += nsec / NsecPerSec
	nsec %= NsecPerSec
	if nsec < 0 {
		sec--
		nsec += NsecPerSec
	}
	return TimeValue{Sec: sec, Nsec: uint32(nsec)}
}

// FromDuration converts a time.Duration to a TimeValue
func FromDuration(d time.Duration) TimeValue {
	return New(0, int64(d))
}

// FromTime converts an absolute time.Time to a TimeValue offset from the unix epoch
func FromTime(t time.Time) TimeValue {
	return New(t.Unix(), int64(t.Nanosecond()))
}

// Duration converts the value to a time.Duration.
// Values outside of roughly ±292 years overflow silently, like everywhere
// else in the time package.
func (tv TimeValue) Duration() time.Duration {
	return time.Duration(tv.Sec*NsecPerSec + int64(tv.Nsec))
}

// Time interprets the value as an offset from the unix epoch
func (tv TimeValue) Time() time.Time {
	return time.Unix(tv.Sec, int64(tv.Nsec))
}

// Add returns tv + other, normalized
func (tv TimeValue) Add(other TimeValue) TimeValue {
	return New(tv.Sec+other.Sec, int64(tv.Nsec)+int64(other.Nsec))
}

// Sub returns tv - other, normalized
func (tv TimeValue) Sub(other TimeValue) TimeValue {
	return New(tv.Sec-other.Sec, int64(tv.Nsec)-int64(other.Nsec))
}

// Neg returns -tv, normalized
func (tv TimeValue) Neg() TimeValue {
	return New(-tv.Sec, -int64(tv.Nsec))
}

// IsNegative reports whether the value is below zero
func (tv TimeValue) IsNegative() bool {
	return tv.Sec < 0
}

// IsZero reports whether the value is exactly zero
func (tv TimeValue) IsZero() bool {
	return tv.Sec == 0 && tv.Nsec == 0
}

// Abs returns the magnitude of the value
func (tv TimeValue) Abs() TimeValue {
	if tv.IsNegative() {
		return tv.Neg()
	}
	return tv
}

// Less reports whether tv is strictly before other
func (tv TimeValue) Less(other TimeValue) bool {
	if tv.Sec != other.Sec {
		return tv.Sec < other.Sec
	}
	return tv.Nsec < other.Nsec
}

func (tv TimeValue) String() string {
	if tv.IsNegative() {
		a := tv.Neg()
		return fmt.Sprintf("-%d.%09ds", a.Sec, a.Nsec)
	}
	return fmt.Sprintf("%d.%09ds", tv.Sec, tv.Nsec)
}
