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

package kernclock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaledPPMConversion(t *testing.T) {
	// 1 ppm is 2^16 in the timex encoding and 1000 ppb
	require.Equal(t, int64(65536), PPBToScaledPPM(1000))
	require.Equal(t, int64(-65536), PPBToScaledPPM(-1000))
	require.InEpsilon(t, 1000.0, ScaledPPMToPPB(65536), 0.00001)
	require.InEpsilon(t, -1000.0, ScaledPPMToPPB(-65536), 0.00001)
	require.Equal(t, 0.0, ScaledPPMToPPB(0))
}

func TestScaledPPMRoundTrip(t *testing.T) {
	// one encoding step is 1/65.536 ppb, round-trip error is at most half that
	quantum := 1 / PPBToTimexPPM
	for _, ppb := range []float64{0, 1000, -1000, 500000, -500000, 123456, 1234.5, -0.4} {
		require.InDelta(t, ppb, ScaledPPMToPPB(PPBToScaledPPM(ppb)), quantum/2)
	}
}

func TestScaledPPMRounds(t *testing.T) {
	// nearest value, not truncation
	require.Equal(t, int64(1), PPBToScaledPPM(0.01))
	require.Equal(t, int64(-1), PPBToScaledPPM(-0.01))
	require.Equal(t, int64(0), PPBToScaledPPM(0.007))
}

func TestUsToNS(t *testing.T) {
	require.Equal(t, uint64(16000000), usToNS(16000))
	require.Equal(t, uint64(0), usToNS(0))
	require.Equal(t, uint64(0), usToNS(-5))
}
