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
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaxAdjFreq(t *testing.T) {
	caps := &Caps{
		MaxAdj: 1000000000,
	}

	got := caps.maxAdj()
	require.InEpsilon(t, 1000000000.0, got, 0.00001)
	require.True(t, caps.SupportsFrequencySteering())

	caps.MaxAdj = 0
	got = caps.maxAdj()
	require.InEpsilon(t, 500000.0, got, 0.00001)
	require.False(t, caps.SupportsFrequencySteering())
}

func TestFDToClockID(t *testing.T) {
	// linuxptp FD_TO_CLOCKID
	require.Equal(t, int32(^3<<3|3), FDToClockID(3))
	require.NotEqual(t, FDToClockID(3), FDToClockID(4))
}

func TestOpenNotExist(t *testing.T) {
	dev, err := Open("/dev/ptp-does-not-exist")
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Nil(t, dev)
}
