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
	"github.com/facebookincubator/clocksteer/discipline"
	"github.com/facebookincubator/clocksteer/kernclock"
	"github.com/facebookincubator/clocksteer/timeval"
)

// sysBackend binds a handle to the kernel clock-discipline facility.
// readID is the clock read by ReadTime, adjID the clock all timex
// transactions go to; they differ only for the TAI view of the system
// clock, which shares the realtime clock's discipline state.
type sysBackend struct {
	readID int32
	adjID  int32
}

func (b *sysBackend) readTime() (timeval.TimeValue, ErrorEstimate, error) {
	r, err := kernclock.Read(b.adjID)
	if err != nil {
		return timeval.TimeValue{}, ErrorEstimate{}, err
	}
	est := ErrorEstimate{
		EstimatedErrorNS: r.EstErrorNS,
		MaximumErrorNS:   r.MaxErrorNS,
		Unsynchronized:   r.Status&discipline.StaUnsync != 0,
	}
	if !r.HasTime {
		// the BSD timex carries no timestamp
		tv, err := kernclock.GetTime(b.readID)
		return tv, est, err
	}
	tv := r.Time
	if b.readID != b.adjID {
		// the TAI view is the realtime clock plus the kernel TAI offset
		tv = tv.Add(timeval.New(int64(r.TAIOffset), 0))
	}
	return tv, est, nil
}

func (b *sysBackend) frequencyPPB() (float64, error) {
	freqPPB, _, err := kernclock.FrequencyPPB(b.adjID)
	return freqPPB, err
}

func (b *sysBackend) adjFreqPPB(freqPPB float64, hold bool) (float64, error) {
	actual, _, err := kernclock.AdjFreqPPB(b.adjID, freqPPB, hold)
	return actual, err
}

func (b *sysBackend) step(offset timeval.TimeValue) error {
	_, err := kernclock.Step(b.adjID, offset)
	return err
}

func (b *sysBackend) readout() (*kernclock.Readout, error) {
	return kernclock.Read(b.adjID)
}

func (b *sysBackend) updateStatus(update func(status int32) int32) error {
	_, err := kernclock.UpdateStatus(b.adjID, update)
	return err
}

func (b *sysBackend) setTAIOffset(offset int32) error {
	return kernclock.SetTAIOffset(b.adjID, offset)
}

func (b *sysBackend) setErrorEstimate(estErrorNS, maxErrorNS uint64) error {
	return kernclock.SetErrorEstimate(b.adjID, estErrorNS, maxErrorNS)
}

// the system clock is process-wide kernel state, nothing to release
func (b *sysBackend) close() error {
	return nil
}

// probeSysCapabilities queries the capability snapshot for a system clock.
// Probe failures degrade to platform defaults, they never fail Open.
func probeSysCapabilities(adjID int32) Capabilities {
	caps := Capabilities{
		SupportsFrequencySteering: true,
		MaxFrequencyPPB:           kernclock.DefaultMaxFreqPPB,
		MinFrequencyPPB:           -kernclock.DefaultMaxFreqPPB,
		// the kernel enforces no one-shot offset limit on its own clock
		MaxStep:          NoStepLimit,
		TickResolutionNS: 1,
	}
	if maxFreq, err := kernclock.MaxFreqPPB(adjID); err == nil {
		caps.MaxFrequencyPPB = maxFreq
		caps.MinFrequencyPPB = -maxFreq
	}
	if res, err := kernclock.ResolutionNS(adjID); err == nil {
		caps.TickResolutionNS = res
	}
	return caps
}
