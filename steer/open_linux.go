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
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/facebookincubator/clocksteer/kernclock"
	"github.com/facebookincubator/clocksteer/phc"
)

// Open resolves a selector to a live clock handle and probes its
// capabilities. Capability probing failure degrades to defaults and never
// fails Open; resolution failure reports ErrNotFound, ErrPermissionDenied
// or ErrUnsupported.
func Open(selector ClockSelector) (*Handle, error) {
	switch selector.kind {
	case kindSystemTAI:
		// CLOCK_TAI responds with EINVAL on kernels without it
		if _, err := kernclock.GetTime(kernclock.ClockTAI); err != nil {
			return nil, classify("open tai clock", err)
		}
		// TAI is the realtime clock shifted by the TAI offset and shares
		// its discipline state
		b := &sysBackend{readID: kernclock.ClockTAI, adjID: kernclock.ClockRealtime}
		return &Handle{selector: selector, backend: b, caps: probeSysCapabilities(b.adjID)}, nil
	case kindPtpDevice:
		dev, err := phc.Open(selector.path)
		if err != nil {
			return nil, classify("open "+selector.path, err)
		}
		if _, err := dev.ReadCaps(); errors.Is(err, unix.ENOTTY) {
			// a character device without the PTP ioctl surface
			dev.Close()
			return nil, fmt.Errorf("open %s: not a PTP clock device: %w", selector.path, ErrNotFound)
		}
		b := &phcBackend{dev: dev}
		return &Handle{selector: selector, backend: b, caps: probePhcCapabilities(dev)}, nil
	default:
		b := &sysBackend{readID: kernclock.ClockRealtime, adjID: kernclock.ClockRealtime}
		return &Handle{selector: selector, backend: b, caps: probeSysCapabilities(b.adjID)}, nil
	}
}
