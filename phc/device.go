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

package phc

import (
	"unsafe"

	"github.com/vtolstov/go-ioctl"
	"golang.org/x/sys/unix"
)

// Missing from sys/unix package, defined in Linux include/uapi/linux/ptp_clock.h
const ptpClkMagic = '='

// ioctlPTPClockGetcaps is an IOCTL to get PTP clock capabilities
var ioctlPTPClockGetcaps = ioctl.IOR(ptpClkMagic, 1, unsafe.Sizeof(Caps{}))

// ioctlPTPSysOffsetPrecise is an IOCTL to get precise cross-timestamps
var ioctlPTPSysOffsetPrecise = ioctl.IOWR(ptpClkMagic, 8, unsafe.Sizeof(SysOffsetPrecise{}))

// Caps is struct ptp_clock_caps as defined in linux/ptp_clock.h
type Caps struct {
	MaxAdj  int32 /* Maximum frequency adjustment in parts per billon. */
	NAlarm  int32 /* Number of programmable alarms. */
	NExtTs  int32 /* Number of external time stamp channels. */
	NPerOut int32 /* Number of programmable periodic signals. */
	PPS     int32 /* Whether the clock supports a PPS callback. */
	NPins   int32 /* Number of input/output pins. */
	/* Whether the clock supports precise system-device cross timestamps */
	CrossTimestamping int32
	/* Whether the clock supports adjust phase */
	AdjustPhase int32
	Rsv         [12]int32 /* Reserved for future use. */
}

func (caps *Caps) maxAdj() float64 {
	if caps == nil || caps.MaxAdj == 0 {
		return DefaultMaxClockFreqPPB
	}
	return float64(caps.MaxAdj)
}

// SupportsFrequencySteering reports whether the device can adjust its
// frequency at all. Free-running PHCs report a zero max adjustment.
func (caps *Caps) SupportsFrequencySteering() bool {
	return caps != nil && caps.MaxAdj != 0
}

// ClockTime is struct ptp_clock_time as defined in linux/ptp_clock.h
type ClockTime struct {
	Sec      int64  /* seconds */
	NSec     uint32 /* nanoseconds */
	Reserved uint32
}

// SysOffsetPrecise is struct ptp_sys_offset_precise as defined in
// linux/ptp_clock.h, used for cross-timestamping reads
type SysOffsetPrecise struct {
	Device      ClockTime
	SysRealTime ClockTime
	SysMonoRaw  ClockTime
	Reserved    [4]uint32 /* Reserved for future use. */
}

// FDToClockID converts a PHC file descriptor to a dynamic POSIX clock ID.
// See clock_gettime(2), "Dynamic clocks".
func FDToClockID(fd uintptr) int32 {
	return int32((int(^fd) << 3) | 3)
}

// ReadCaps reads device capabilities using the PTP_CLOCK_GETCAPS ioctl
func (dev *Device) ReadCaps() (*Caps, error) {
	caps := &Caps{}
	if err := dev.ioctlPtr(ioctlPTPClockGetcaps, unsafe.Pointer(caps)); err != nil {
		return nil, err
	}
	return caps, nil
}

// ReadSysoffPrecise returns a cross-timestamp of device and system clocks,
// for devices whose capabilities report CrossTimestamping
func (dev *Device) ReadSysoffPrecise() (*SysOffsetPrecise, error) {
	precise := &SysOffsetPrecise{}
	if err := dev.ioctlPtr(ioctlPTPSysOffsetPrecise, unsafe.Pointer(precise)); err != nil {
		return nil, err
	}
	return precise, nil
}

func (dev *Device) ioctlPtr(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, dev.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
