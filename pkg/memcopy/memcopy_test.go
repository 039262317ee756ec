// Copyright 2023 The Beryl Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memcopy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConjointInt64sOverlapDown(t *testing.T) {
	// Shift left by two within one backing array: source starts above the
	// destination, so the copy must run forward.
	buf := []int64{0, 1, 2, 3, 4, 5, 6, 7}
	n := ConjointInt64s(buf[0:6], buf[2:8])
	if n != 6 {
		t.Fatalf("count = %d, want 6", n)
	}
	want := []int64{2, 3, 4, 5, 6, 7, 6, 7}
	if diff := cmp.Diff(want, buf); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestConjointInt64sOverlapUp(t *testing.T) {
	// Shift right by two: destination starts above the source, so the copy
	// must run backward.
	buf := []int64{0, 1, 2, 3, 4, 5, 6, 7}
	n := ConjointInt64s(buf[2:8], buf[0:6])
	if n != 6 {
		t.Fatalf("count = %d, want 6", n)
	}
	want := []int64{0, 1, 0, 1, 2, 3, 4, 5}
	if diff := cmp.Diff(want, buf); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestConjointInt16sOverlap(t *testing.T) {
	buf := []int16{0, 1, 2, 3, 4, 5}

	// Shift left by one, then right by one. Both directions must be
	// correct for the same backing array.
	if n := ConjointInt16s(buf[0:5], buf[1:6]); n != 5 {
		t.Fatalf("count = %d, want 5", n)
	}
	want := []int16{1, 2, 3, 4, 5, 5}
	if diff := cmp.Diff(want, buf); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}

	if n := ConjointInt16s(buf[1:6], buf[0:5]); n != 5 {
		t.Fatalf("count = %d, want 5", n)
	}
	want = []int16{1, 1, 2, 3, 4, 5}
	if diff := cmp.Diff(want, buf); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestConjointInt32sOverlap(t *testing.T) {
	buf := []int32{10, 20, 30, 40, 50}
	ConjointInt32s(buf[1:], buf[:4])
	want := []int32{10, 10, 20, 30, 40}
	if diff := cmp.Diff(want, buf); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestConjointWordsDisjoint(t *testing.T) {
	src := []uintptr{1, 2, 3}
	dst := make([]uintptr, 3)
	if n := ConjointWords(dst, src); n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Errorf("copy mismatch (-want +got):\n%s", diff)
	}
}

func TestConjointShortDestination(t *testing.T) {
	src := []int64{1, 2, 3, 4}
	dst := make([]int64, 2)
	if n := ConjointInt64s(dst, src); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	want := []int64{1, 2}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("copy mismatch (-want +got):\n%s", diff)
	}
}

func TestConjointEmpty(t *testing.T) {
	if n := ConjointWords(nil, nil); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
	if n := ConjointBytes([]byte{}, []byte("x")); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestConjointBytesOverlap(t *testing.T) {
	buf := []byte("abcdef")
	ConjointBytes(buf[1:], buf[:5])
	if got := string(buf); got != "aabcde" {
		t.Errorf("buffer = %q, want %q", got, "aabcde")
	}
}
