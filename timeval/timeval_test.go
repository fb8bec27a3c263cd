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

package timeval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewNormalizes(t *testing.T) {
	testCases := []struct {
		name string
		sec  int64
		nsec int64
		want TimeValue
	}{
		{"zero", 0, 0, TimeValue{0, 0}},
		{"plain", 1, 500000000, TimeValue{1, 500000000}},
		{"nsec overflow", 0, 1500000000, TimeValue{1, 500000000}},
		{"nsec negative", 0, -500000000, TimeValue{-1, 500000000}},
		{"both negative", -1, -500000000, TimeValue{-2, 500000000}},
		{"large negative nsec", 2, -3500000000, TimeValue{-2, 500000000}},
		{"exactly one second negative", 0, -1000000000, TimeValue{-1, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := New(tc.sec, tc.nsec)
			require.Equal(t, tc.want, got)
			require.Less(t, got.Nsec, uint32(1000000000))
		})
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	values := []TimeValue{
		New(0, 0),
		New(1, 1),
		New(-1, 999999999),
		New(12345, 678901234),
		New(-12345, 678901234),
		FromDuration(-time.Millisecond),
	}
	for _, a := range values {
		for _, b := range values {
			sum := a.Add(b)
			require.Less(t, sum.Nsec, uint32(1000000000))
			require.Equal(t, a, sum.Sub(b), "(%v + %v) - %v", a, b, b)
			require.Equal(t, b, sum.Sub(a), "(%v + %v) - %v", a, b, a)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{
		0,
		time.Nanosecond,
		-time.Nanosecond,
		time.Second + 42*time.Nanosecond,
		-1500 * time.Millisecond,
		87000 * time.Hour,
	} {
		require.Equal(t, d, FromDuration(d).Duration())
	}
}

func TestNegAbs(t *testing.T) {
	tv := New(1, 500000000)
	neg := tv.Neg()
	require.Equal(t, TimeValue{-2, 500000000}, neg)
	require.True(t, neg.IsNegative())
	require.Equal(t, tv, neg.Neg())
	require.Equal(t, tv, neg.Abs())
	require.Equal(t, tv, tv.Abs())
	require.Equal(t, TimeValue{0, 0}, New(0, 0).Neg())
}

func TestLess(t *testing.T) {
	require.True(t, New(0, 1).Less(New(0, 2)))
	require.True(t, New(-1, 999999999).Less(New(0, 0)))
	require.False(t, New(1, 0).Less(New(1, 0)))
	require.False(t, New(2, 0).Less(New(1, 999999999)))
}

func TestString(t *testing.T) {
	require.Equal(t, "1.000000042s", New(1, 42).String())
	require.Equal(t, "-1.500000000s", New(-2, 500000000).String())
	require.Equal(t, "0.000000000s", New(0, 0).String())
}

func TestFromTime(t *testing.T) {
	now := time.Now()
	tv := FromTime(now)
	require.Equal(t, now.Unix(), tv.Sec)
	require.Equal(t, now.Nanosecond(), int(tv.Nsec))
	require.True(t, tv.Time().Equal(now.Truncate(0)))
}
