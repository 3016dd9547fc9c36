/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package store

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"curvelab/internal/curve"
)

// recorder collects every event a store emits.
type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func newRecorded(t *testing.T) (*CurveStore, *recorder) {
	t.Helper()
	s := New()
	r := &recorder{}
	s.Subscribe(r.listen)
	return s, r
}

func TestSynchronousDelivery(t *testing.T) {
	s, r := newRecorded(t)
	if err := s.SetCurveData("A", pts(1, 2)); err != nil {
		t.Fatalf("SetCurveData: %v", err)
	}
	if r.count(EventCurvesChanged) != 1 {
		t.Fatalf("expected one curves-changed, got %d", r.count(EventCurvesChanged))
	}
	ev, _ := r.last(EventCurvesChanged)
	if diff := cmp.Diff([]string{"A"}, ev.Curves); diff != "" {
		t.Fatalf("payload:\n%s", diff)
	}
}

func TestRemovePointEmitsSelectionRepair(t *testing.T) {
	s, r := newRecorded(t)
	_ = s.SetCurveData("A", pts(1, 2, 3))
	s.SetSelection("A", []int{1})
	r.events = nil
	s.RemovePoint("A", 0)
	if r.count(EventCurvesChanged) != 1 || r.count(EventSelectionChanged) != 1 {
		t.Fatalf("expected curves+selection events, got %+v", r.events)
	}
	// data change is delivered before the selection repair
	if r.events[0].Kind != EventCurvesChanged {
		t.Fatalf("curves-changed not first: %v", r.events[0].Kind)
	}
	sel, _ := r.last(EventSelectionChanged)
	if diff := cmp.Diff(map[string][]int{"A": {0}}, sel.Selections); diff != "" {
		t.Fatalf("selection payload:\n%s", diff)
	}
}

func TestBatchCoalescesCurves(t *testing.T) {
	s, r := newRecorded(t)
	s.BeginBatch()
	_ = s.SetCurveData("A", nil)
	_ = s.SetCurveData("B", nil)
	if len(r.events) != 0 {
		t.Fatalf("events leaked mid-batch: %+v", r.events)
	}
	// mid-batch state is visible to readers
	if !s.HasCurve("A") || !s.HasCurve("B") {
		t.Fatalf("batched mutations not visible mid-batch")
	}
	s.EndBatch()
	if r.count(EventCurvesChanged) != 1 {
		t.Fatalf("expected one coalesced curves-changed, got %d", r.count(EventCurvesChanged))
	}
	ev, _ := r.last(EventCurvesChanged)
	if diff := cmp.Diff([]string{"A", "B"}, ev.Curves); diff != "" {
		t.Fatalf("coalesced payload should cover both curves:\n%s", diff)
	}
}

func TestBatchIdempotence(t *testing.T) {
	for _, n := range []int{0, 1, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			s, r := newRecorded(t)
			s.BeginBatch()
			for i := 0; i < n; i++ {
				if err := s.SetCurveData(fmt.Sprintf("c%03d", i), pts(1)); err != nil {
					t.Fatalf("mutation %d: %v", i, err)
				}
			}
			s.EndBatch()
			want := 0
			if n > 0 {
				want = 1
			}
			if got := r.count(EventCurvesChanged); got != want {
				t.Fatalf("n=%d: %d curves-changed events, want %d", n, got, want)
			}
			if len(r.events) != want {
				t.Fatalf("n=%d: unexpected extra events: %+v", n, r.events)
			}
		})
	}
}

func TestNestedBatches(t *testing.T) {
	s, r := newRecorded(t)
	s.BeginBatch()
	_ = s.SetCurveData("A", nil)
	s.BeginBatch()
	_ = s.SetCurveData("B", nil)
	s.EndBatch() // inner: must not fire
	if len(r.events) != 0 {
		t.Fatalf("inner EndBatch fired events: %+v", r.events)
	}
	s.EndBatch()
	if r.count(EventCurvesChanged) != 1 {
		t.Fatalf("outer EndBatch should fire once, got %d", r.count(EventCurvesChanged))
	}
}

func TestBatchCoalescesAllKinds(t *testing.T) {
	s, r := newRecorded(t)
	_ = s.SetCurveData("A", pts(1, 2))
	r.events = nil
	s.Batch(func() {
		_ = s.AddPoint("A", curve.Point{Frame: 9})
		s.SetSelection("A", []int{0})
		s.SetActiveCurve("A")
		s.SetFrame(42)
		s.SetShowAll(true)
		s.SetFrame(43) // later value wins
	})
	for _, kind := range []EventKind{EventCurvesChanged, EventSelectionChanged, EventActiveCurveChanged, EventFrameChanged, EventDisplayChanged} {
		if got := r.count(kind); got != 1 {
			t.Fatalf("%v: %d events, want 1", kind, got)
		}
	}
	fr, _ := r.last(EventFrameChanged)
	if fr.Frame != 43 {
		t.Fatalf("coalesced frame = %d, want 43", fr.Frame)
	}
}

func TestNoEventOnNoChange(t *testing.T) {
	s, r := newRecorded(t)
	_ = s.SetCurveData("A", pts(1))
	s.SetFrame(0) // already 0
	s.SetShowAll(false)
	s.SetSelection("A", nil) // already empty
	s.ClearActiveCurve()     // already none
	if got := r.count(EventFrameChanged) + r.count(EventDisplayChanged) + r.count(EventSelectionChanged) + r.count(EventActiveCurveChanged); got != 0 {
		t.Fatalf("no-op mutations emitted %d events: %+v", got, r.events)
	}
}

func TestSetCurveDataEqualListIsNoOp(t *testing.T) {
	s, r := newRecorded(t)
	_ = s.SetCurveData("A", pts(1, 2))
	r.events = nil
	v := s.CurveVersion("A")
	if err := s.SetCurveData("A", pts(1, 2)); err != nil {
		t.Fatalf("SetCurveData: %v", err)
	}
	if got := r.count(EventCurvesChanged); got != 0 {
		t.Fatalf("equal replacement emitted %d curves-changed events", got)
	}
	if s.CurveVersion("A") != v {
		t.Fatalf("equal replacement bumped the curve version")
	}
}

func TestActiveClearedEventOnRemoval(t *testing.T) {
	s, r := newRecorded(t)
	_ = s.SetCurveData("A", pts(1))
	s.SetActiveCurve("A")
	r.events = nil
	s.RemoveCurve("A")
	ev, ok := r.last(EventActiveCurveChanged)
	if !ok {
		t.Fatalf("no active-curve-changed on removal of active curve")
	}
	if ev.HasActive {
		t.Fatalf("active should be cleared, got %+v", ev)
	}
}

func TestReentrantEmissionAsserts(t *testing.T) {
	s := New()
	_ = s.SetCurveData("A", pts(1, 2))
	var depth int
	s.Subscribe(func(ev Event) {
		if ev.Kind != EventCurvesChanged || depth > 0 {
			return
		}
		depth++
		// re-entering the same notification path must fail loudly
		_ = s.AddPoint("A", curve.Point{Frame: 100})
	})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on re-entrant emission")
		}
	}()
	_ = s.AddPoint("A", curve.Point{Frame: 50})
}

func TestUnsubscribe(t *testing.T) {
	s, r := newRecorded(t)
	id := s.Subscribe(func(Event) { t.Fatalf("listener called after unsubscribe") })
	s.Unsubscribe(id)
	_ = s.SetCurveData("A", nil)
	if r.count(EventCurvesChanged) != 1 {
		t.Fatalf("remaining listener missed event")
	}
}
