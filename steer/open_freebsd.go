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
	"fmt"

	"github.com/facebookincubator/clocksteer/kernclock"
)

// Open resolves a selector to a live clock handle and probes its
// capabilities. The BSD NTP kernel API disciplines the realtime clock only;
// TAI and PTP device selectors report ErrUnsupported.
func Open(selector ClockSelector) (*Handle, error) {
	switch selector.kind {
	case kindSystemTAI:
		return nil, fmt.Errorf("open tai clock: %w", ErrUnsupported)
	case kindPtpDevice:
		return nil, fmt.Errorf("open %s as a PTP clock device: %w", selector.path, ErrUnsupported)
	default:
		b := &sysBackend{readID: kernclock.ClockRealtime, adjID: kernclock.ClockRealtime}
		return &Handle{selector: selector, backend: b, caps: probeSysCapabilities(b.adjID)}, nil
	}
}
