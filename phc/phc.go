//go:build linux

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

// Package phc implements the PTP hardware clock backend: a /dev/ptpN
// character device addressed through its dynamic POSIX clock ID, with
// capabilities probed via the PTP_CLOCK_GETCAPS ioctl.
package phc

import (
	"os"

	"github.com/facebookincubator/clocksteer/discipline"
	"github.com/facebookincubator/clocksteer/kernclock"
	"github.com/facebookincubator/clocksteer/timeval"
)

// DefaultMaxClockFreqPPB value came from linuxptp project (clockadj.c)
const DefaultMaxClockFreqPPB = 500000.0

// Device is a PTP hardware clock device, a thin wrapper around its file
type Device os.File

// Open opens a PHC device for steering. Requires read-write access.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return FromFile(f), nil
}

// OpenReadonly opens a PHC device for reading time only
func OpenReadonly(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return FromFile(f), nil
}

// FromFile returns a Device corresponding to an already open device file
func FromFile(f *os.File) *Device {
	return (*Device)(f)
}

// File returns the underlying os.File
func (dev *Device) File() *os.File {
	return (*os.File)(dev)
}

// Fd returns the underlying file descriptor
func (dev *Device) Fd() uintptr {
	return dev.File().Fd()
}

// ClockID derives the dynamic POSIX clock ID from the file descriptor
func (dev *Device) ClockID() int32 {
	return FDToClockID(dev.Fd())
}

// Close the underlying device file
func (dev *Device) Close() error {
	return dev.File().Close()
}

// Time reads the PHC time via clock_gettime on the dynamic clock ID
func (dev *Device) Time() (timeval.TimeValue, error) {
	return kernclock.GetTime(dev.ClockID())
}

// ResolutionNS returns the device clock resolution in nanoseconds
func (dev *Device) ResolutionNS() (uint32, error) {
	return kernclock.ResolutionNS(dev.ClockID())
}

// FrequencyPPB reads the device frequency offset in PPB
func (dev *Device) FrequencyPPB() (float64, error) {
	freqPPB, _, err := kernclock.FrequencyPPB(dev.ClockID())
	return freqPPB, err
}

// AdjFreqPPB adjusts the device frequency offset in PPB and returns the
// value the kernel reports back
func (dev *Device) AdjFreqPPB(freqPPB float64) (float64, error) {
	actual, _, err := kernclock.AdjFreqPPB(dev.ClockID(), freqPPB, false)
	return actual, err
}

// Step steps the device clock by the given signed offset
func (dev *Device) Step(step timeval.TimeValue) error {
	_, err := kernclock.Step(dev.ClockID(), step)
	return err
}

// ReadStatus reads the raw discipline status bitmask of the device clock
func (dev *Device) ReadStatus() (int32, discipline.State, error) {
	r, err := kernclock.Read(dev.ClockID())
	if err != nil {
		return 0, 0, err
	}
	return r.Status, r.State, nil
}

// MaxFreqPPB returns the maximum frequency adjustment supported by the
// device, probed from its capabilities
func (dev *Device) MaxFreqPPB() (float64, error) {
	caps, err := dev.ReadCaps()
	if err != nil {
		return 0, err
	}
	return caps.maxAdj(), nil
}
