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
	"io/fs"

	"golang.org/x/sys/unix"
)

// Every operation either succeeds or fails with an error matching
// (errors.Is) exactly one of these sentinels. Failures that none of them
// covers are backend failures and wrap the raw platform error instead, so
// the errno stays available for diagnosis.
var (
	// ErrPermissionDenied means the caller lacks privilege for the operation
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound means the clock or device does not exist
	ErrNotFound = errors.New("clock not found")
	// ErrUnsupported means the capability is absent on this backend or platform
	ErrUnsupported = errors.New("operation not supported by this clock")
	// ErrOutOfRange means the request violates a declared or kernel-enforced limit
	ErrOutOfRange = errors.New("request out of range")
	// ErrInvalidTransition means leap-second state machine misuse
	ErrInvalidTransition = errors.New("invalid leap second transition")
)

// classify maps raw backend errors onto the error taxonomy.
// Errno meanings per clock_adjtime(2) and clock_gettime(2):
// EPERM/EACCES lack of privilege, ENODEV/ENOENT/ENXIO device gone or absent,
// EOPNOTSUPP/ENOTTY operation not implemented by the clock, EINVAL a clock id
// or mode the running kernel does not know.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.EPERM, unix.EACCES:
			return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
		case unix.ENODEV, unix.ENOENT, unix.ENXIO:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case unix.EOPNOTSUPP, unix.ENOTTY, unix.EINVAL:
			return fmt.Errorf("%s: %w", op, ErrUnsupported)
		case unix.ERANGE:
			return fmt.Errorf("%s: %w", op, ErrOutOfRange)
		}
	}
	// os.Open errors come wrapped in fs.PathError
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}
	return fmt.Errorf("%s: backend failure: %w", op, err)
}
