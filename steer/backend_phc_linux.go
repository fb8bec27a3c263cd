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
	"golang.org/x/sys/unix"

	"github.com/facebookincubator/clocksteer/kernclock"
	"github.com/facebookincubator/clocksteer/phc"
	"github.com/facebookincubator/clocksteer/timeval"
)

// phcBackend binds a handle to a PTP hardware clock character device.
// Leap scheduling, TAI bookkeeping and error estimates live in the shared
// system-clock timex state only; the kernel does not implement them for
// dynamic clocks, so those operations report ENOTSUP here.
type phcBackend struct {
	dev *phc.Device
}

func (b *phcBackend) readTime() (timeval.TimeValue, ErrorEstimate, error) {
	tv, err := b.dev.Time()
	// hardware clocks track no error estimate
	return tv, ErrorEstimate{}, err
}

func (b *phcBackend) frequencyPPB() (float64, error) {
	return b.dev.FrequencyPPB()
}

func (b *phcBackend) adjFreqPPB(freqPPB float64, _ bool) (float64, error) {
	return b.dev.AdjFreqPPB(freqPPB)
}

func (b *phcBackend) step(offset timeval.TimeValue) error {
	return b.dev.Step(offset)
}

func (b *phcBackend) readout() (*kernclock.Readout, error) {
	r, err := kernclock.Read(b.dev.ClockID())
	if err != nil {
		return nil, err
	}
	r.HasTAI = false
	return r, nil
}

func (b *phcBackend) updateStatus(func(status int32) int32) error {
	return unix.ENOTSUP
}

func (b *phcBackend) setTAIOffset(int32) error {
	return unix.ENOTSUP
}

func (b *phcBackend) setErrorEstimate(uint64, uint64) error {
	return unix.ENOTSUP
}

func (b *phcBackend) close() error {
	return b.dev.Close()
}

// probePhcCapabilities queries the device capability ioctl. A failed probe
// degrades to the linuxptp defaults rather than failing Open.
func probePhcCapabilities(dev *phc.Device) Capabilities {
	caps := Capabilities{
		SupportsFrequencySteering: true,
		MaxFrequencyPPB:           phc.DefaultMaxClockFreqPPB,
		MinFrequencyPPB:           -phc.DefaultMaxClockFreqPPB,
		MaxStep:                   NoStepLimit,
		TickResolutionNS:          1,
	}
	if devCaps, err := dev.ReadCaps(); err == nil {
		caps.SupportsFrequencySteering = devCaps.SupportsFrequencySteering()
		maxAdj := float64(devCaps.MaxAdj)
		if !caps.SupportsFrequencySteering {
			maxAdj = 0
		}
		caps.MaxFrequencyPPB = maxAdj
		caps.MinFrequencyPPB = -maxAdj
	}
	if res, err := dev.ResolutionNS(); err == nil {
		caps.TickResolutionNS = res
	}
	return caps
}
