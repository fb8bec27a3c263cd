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

/*
Package steer is the clock-control abstraction layer: one model of a
steerable clock covering the system realtime clock, the system TAI clock and
PTP hardware clock devices.

A Handle is obtained with Open for a ClockSelector, its Capabilities are
probed once, and every operation afterwards is an independent single-syscall
transaction against the handle. The package imposes no locking: operations
on one Handle must be serialized by the caller, handles to different clocks
are fully independent. It never retries, never logs and never exits the
process; every failure maps onto the sentinel errors in errors.go.
*/
package steer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/facebookincubator/clocksteer/discipline"
	"github.com/facebookincubator/clocksteer/kernclock"
	"github.com/facebookincubator/clocksteer/timeval"
)

type selectorKind int

const (
	kindSystemRealtime selectorKind = iota
	kindSystemTAI
	kindPtpDevice
)

// ClockSelector identifies which backend and native handle to open.
// Immutable once constructed.
type ClockSelector struct {
	kind selectorKind
	path string
}

// SystemRealtime selects the system UTC realtime clock
func SystemRealtime() ClockSelector {
	return ClockSelector{kind: kindSystemRealtime}
}

// SystemTAI selects the system TAI clock
func SystemTAI() ClockSelector {
	return ClockSelector{kind: kindSystemTAI}
}

// PtpDevice selects a PTP hardware clock by its character device path
func PtpDevice(path string) ClockSelector {
	return ClockSelector{kind: kindPtpDevice, path: path}
}

// ParseSelector turns "realtime", "tai" or a /dev/ptpN path into a selector
func ParseSelector(s string) (ClockSelector, error) {
	switch {
	case s == "realtime":
		return SystemRealtime(), nil
	case s == "tai":
		return SystemTAI(), nil
	case strings.HasPrefix(s, "/"):
		return PtpDevice(s), nil
	}
	return ClockSelector{}, fmt.Errorf("unknown clock selector %q, want realtime, tai or a device path", s)
}

func (s ClockSelector) String() string {
	switch s.kind {
	case kindSystemTAI:
		return "tai"
	case kindPtpDevice:
		return s.path
	default:
		return "realtime"
	}
}

// Capabilities are the per-clock steering limits, probed once per handle
// and read-only afterwards
type Capabilities struct {
	// SupportsFrequencySteering is false for free-running hardware clocks
	SupportsFrequencySteering bool
	// MaxFrequencyPPB and MinFrequencyPPB bound SetFrequencyPPB requests
	MaxFrequencyPPB float64
	MinFrequencyPPB float64
	// MaxStep bounds one-shot Step offsets
	MaxStep timeval.TimeValue
	// TickResolutionNS is the clock resolution in nanoseconds
	TickResolutionNS uint32
}

// NoStepLimit is the MaxStep value of clocks whose kernel interface does not
// enforce a one-shot step limit
var NoStepLimit = timeval.New(math.MaxInt32, 999999999)

// ErrorEstimate is the kernel's notion of clock synchronization error
type ErrorEstimate struct {
	EstimatedErrorNS uint64
	MaximumErrorNS   uint64
	// Unsynchronized signals to kernel consumers that the clock should not
	// be trusted
	Unsynchronized bool
}

// LeapAction is a leap second adjustment to arm
type LeapAction int

// Leap second actions
const (
	// LeapInsert makes the last minute of the UTC day 61 seconds long
	LeapInsert LeapAction = iota
	// LeapDelete makes the last minute of the UTC day 59 seconds long
	LeapDelete
)

func (a LeapAction) String() string {
	if a == LeapDelete {
		return "delete"
	}
	return "insert"
}

// LeapSecondState is the observed state of the leap-second machinery.
// Transitions are driven by Arm/Disarm calls and by the kernel applying the
// armed action at the epoch boundary.
type LeapSecondState int

// Leap second states
const (
	LeapNone LeapSecondState = iota
	LeapPendingInsert
	LeapPendingDelete
	LeapApplied
)

func (s LeapSecondState) String() string {
	switch s {
	case LeapPendingInsert:
		return "pending-insert"
	case LeapPendingDelete:
		return "pending-delete"
	case LeapApplied:
		return "applied"
	default:
		return "none"
	}
}

// backend is one platform-specific clock binding. Methods return raw OS
// errors; the Handle classifies them.
type backend interface {
	readTime() (timeval.TimeValue, ErrorEstimate, error)
	frequencyPPB() (float64, error)
	adjFreqPPB(freqPPB float64, hold bool) (float64, error)
	step(offset timeval.TimeValue) error
	readout() (*kernclock.Readout, error)
	updateStatus(update func(status int32) int32) error
	setTAIOffset(offset int32) error
	setErrorEstimate(estErrorNS, maxErrorNS uint64) error
	close() error
}

// Handle is a live, operable binding of a selector to one clock backend.
// It exclusively owns the native descriptor for its lifetime.
type Handle struct {
	selector ClockSelector
	backend  backend
	caps     Capabilities
	hold     bool
}

// Selector returns the selector this handle was opened with
func (h *Handle) Selector() ClockSelector {
	return h.selector
}

// Capabilities returns the capability snapshot probed at Open time
func (h *Handle) Capabilities() Capabilities {
	return h.caps
}

// HoldFrequency controls whether subsequent SetFrequencyPPB calls raise
// STA_FREQHOLD, preventing kernel offset corrections from accumulating into
// the frequency
func (h *Handle) HoldFrequency(enable bool) {
	h.hold = enable
}

// Close releases the native clock handle. The Handle must not be used
// afterwards.
func (h *Handle) Close() error {
	return classify("close", h.backend.close())
}

// ReadTime returns the current time of the clock together with the kernel's
// current error estimate. One kernel query per call; backends that do not
// track an error estimate return a zero one.
func (h *Handle) ReadTime() (timeval.TimeValue, ErrorEstimate, error) {
	tv, est, err := h.backend.readTime()
	if err != nil {
		return timeval.TimeValue{}, ErrorEstimate{}, classify("read time", err)
	}
	return tv, est, nil
}

// GetFrequencyPPB returns the current frequency offset of the clock in PPB
func (h *Handle) GetFrequencyPPB() (float64, error) {
	freqPPB, err := h.backend.frequencyPPB()
	if err != nil {
		return 0, classify("get frequency", err)
	}
	return freqPPB, nil
}

// SetFrequencyPPB sets the clock frequency offset in PPB and returns the
// value the kernel actually accepted, read back after the call, so callers
// can observe scaled-ppm quantization. Requests outside the capability
// bounds fail with ErrOutOfRange before any kernel call; clocks that cannot
// steer fail with ErrUnsupported.
func (h *Handle) SetFrequencyPPB(freqPPB float64) (float64, error) {
	if !h.caps.SupportsFrequencySteering {
		return 0, fmt.Errorf("set frequency: %w", ErrUnsupported)
	}
	// NaN compares false against both bounds
	if math.IsNaN(freqPPB) || freqPPB > h.caps.MaxFrequencyPPB || freqPPB < h.caps.MinFrequencyPPB {
		return 0, fmt.Errorf("set frequency %f PPB, want [%f, %f]: %w",
			freqPPB, h.caps.MinFrequencyPPB, h.caps.MaxFrequencyPPB, ErrOutOfRange)
	}
	actual, err := h.backend.adjFreqPPB(freqPPB, h.hold)
	if err != nil {
		return 0, classify("set frequency", err)
	}
	return actual, nil
}

// Step applies a one-shot signed offset to the clock. The jump is
// discontinuous and there is no rollback; callers needing reversibility must
// read before stepping and apply a compensating step.
func (h *Handle) Step(offset timeval.TimeValue) error {
	if h.caps.MaxStep.Less(offset.Abs()) {
		return fmt.Errorf("step %v exceeds maximum %v: %w", offset, h.caps.MaxStep, ErrOutOfRange)
	}
	return classify("step", h.backend.step(offset))
}

// GetTAIOffset returns the integer TAI-UTC offset known to the kernel
func (h *Handle) GetTAIOffset() (int32, error) {
	r, err := h.backend.readout()
	if err != nil {
		return 0, classify("get TAI offset", err)
	}
	if !r.HasTAI {
		return 0, fmt.Errorf("get TAI offset: %w", ErrUnsupported)
	}
	return r.TAIOffset, nil
}

// SetTAIOffset sets the integer TAI-UTC offset. Takes effect immediately:
// subsequent ReadTime calls on a TAI handle observe the new offset.
func (h *Handle) SetTAIOffset(offset int32) error {
	return classify("set TAI offset", h.backend.setTAIOffset(offset))
}

// GetErrorEstimate reads the kernel estimated and maximum clock error and
// the unsynchronized flag
func (h *Handle) GetErrorEstimate() (ErrorEstimate, error) {
	r, err := h.backend.readout()
	if err != nil {
		return ErrorEstimate{}, classify("get error estimate", err)
	}
	return ErrorEstimate{
		EstimatedErrorNS: r.EstErrorNS,
		MaximumErrorNS:   r.MaxErrorNS,
		Unsynchronized:   r.Status&discipline.StaUnsync != 0,
	}, nil
}

// SetErrorEstimate writes the kernel estimated and maximum clock error and
// sets or clears the unsynchronized flag
func (h *Handle) SetErrorEstimate(est ErrorEstimate) error {
	if est.EstimatedErrorNS > est.MaximumErrorNS {
		return fmt.Errorf("estimated error %d ns above maximum %d ns: %w",
			est.EstimatedErrorNS, est.MaximumErrorNS, ErrOutOfRange)
	}
	if err := h.backend.setErrorEstimate(est.EstimatedErrorNS, est.MaximumErrorNS); err != nil {
		return classify("set error estimate", err)
	}
	err := h.backend.updateStatus(func(status int32) int32 {
		if est.Unsynchronized {
			return status | discipline.StaUnsync
		}
		return status &^ discipline.StaUnsync
	})
	return classify("set error estimate", err)
}

// DisciplineStatus reads and decodes the kernel discipline status bitmask
// and clock state
func (h *Handle) DisciplineStatus() (discipline.Status, discipline.State, error) {
	r, err := h.backend.readout()
	if err != nil {
		return discipline.Status{}, 0, classify("discipline status", err)
	}
	return discipline.Decode(r.Status), r.State, nil
}

// DisableKernelDiscipline turns off all standard kernel clock discipline
// (PLL, FLL, PPS time and PPS frequency): the caller's algorithm owns the
// clock afterwards. Clocks without discipline control report success.
func (h *Handle) DisableKernelDiscipline() error {
	err := h.backend.updateStatus(func(status int32) int32 {
		return status &^ (discipline.StaPLL | discipline.StaFLL | discipline.StaPPSTime | discipline.StaPPSFreq)
	})
	err = classify("disable kernel discipline", err)
	// external clocks have no kernel loop to disable
	if errors.Is(err, ErrUnsupported) {
		return nil
	}
	return err
}

// EnableKernelDiscipline enables the kernel phase-locked loop, for callers
// that rely on the standard in-kernel NTP adjustment
func (h *Handle) EnableKernelDiscipline() error {
	err := h.backend.updateStatus(func(status int32) int32 {
		status |= discipline.StaPLL
		return status &^ (discipline.StaFLL | discipline.StaPPSTime | discipline.StaPPSFreq)
	})
	return classify("enable kernel discipline", err)
}
