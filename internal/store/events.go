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
	"sort"
)

// EventKind identifies the typed change signals the store emits.
type EventKind int

const (
	EventCurvesChanged EventKind = iota
	EventSelectionChanged
	EventActiveCurveChanged
	EventFrameChanged
	EventDisplayChanged

	eventKindCount
)

var eventKindNames = [...]string{
	"curves-changed",
	"selection-changed",
	"active-curve-changed",
	"frame-changed",
	"display-changed",
}

func (k EventKind) String() string {
	if k < 0 || k >= eventKindCount {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventKindNames[k]
}

// Event is a tagged change notification. Only the fields relevant to Kind
// are populated:
//   - EventCurvesChanged: Curves (sorted names whose data changed)
//   - EventSelectionChanged: Selections (curve name to sorted indices)
//   - EventActiveCurveChanged: ActiveCurve, HasActive
//   - EventFrameChanged: Frame
//   - EventDisplayChanged: Mode
type Event struct {
	Kind        EventKind
	Curves      []string
	Selections  map[string][]int
	ActiveCurve string
	HasActive   bool
	Frame       int
	Mode        DisplayMode
}

// Listener receives change events. Listeners run synchronously on the
// store's owner goroutine and must not trigger a mutation that re-emits
// the event kind currently being delivered.
type Listener func(Event)

// dispatcher is a typed event table: listeners per registration order,
// batch coalescing, and an assertion against re-entrant emission of the
// same event kind from within its own delivery.
type dispatcher struct {
	nextID    int
	listeners []listenerEntry
	batch     int
	pending   [eventKindCount]*Event
	emitting  [eventKindCount]bool
}

type listenerEntry struct {
	id int
	fn Listener
}

func (d *dispatcher) subscribe(fn Listener) int {
	d.nextID++
	d.listeners = append(d.listeners, listenerEntry{id: d.nextID, fn: fn})
	return d.nextID
}

func (d *dispatcher) unsubscribe(id int) {
	for i, e := range d.listeners {
		if e.id == id {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

// emit delivers ev immediately, or merges it into the pending set while a
// batch is open.
func (d *dispatcher) emit(ev Event) {
	if d.batch > 0 {
		d.merge(ev)
		return
	}
	d.deliver(ev)
}

func (d *dispatcher) deliver(ev Event) {
	if d.emitting[ev.Kind] {
		panic(fmt.Sprintf("store: re-entrant emission of %s from within its own handler", ev.Kind))
	}
	d.emitting[ev.Kind] = true
	defer func() { d.emitting[ev.Kind] = false }()
	// Copy so un/subscribing inside a handler cannot skip entries.
	entries := append([]listenerEntry(nil), d.listeners...)
	for _, e := range entries {
		e.fn(ev)
	}
}

func (d *dispatcher) beginBatch() { d.batch++ }

// endBatch closes one nesting level. At the outermost level every pending
// kind is delivered exactly once, in fixed kind order.
func (d *dispatcher) endBatch() {
	if d.batch == 0 {
		return
	}
	d.batch--
	if d.batch > 0 {
		return
	}
	for k := EventKind(0); k < eventKindCount; k++ {
		if ev := d.pending[k]; ev != nil {
			d.pending[k] = nil
			d.deliver(*ev)
		}
	}
}

func (d *dispatcher) merge(ev Event) {
	cur := d.pending[ev.Kind]
	if cur == nil {
		cp := ev
		cp.Curves = append([]string(nil), ev.Curves...)
		if ev.Selections != nil {
			cp.Selections = make(map[string][]int, len(ev.Selections))
			for n, idx := range ev.Selections {
				cp.Selections[n] = append([]int(nil), idx...)
			}
		}
		d.pending[ev.Kind] = &cp
		return
	}
	switch ev.Kind {
	case EventCurvesChanged:
		cur.Curves = unionSorted(cur.Curves, ev.Curves)
	case EventSelectionChanged:
		for n, idx := range ev.Selections {
			cur.Selections[n] = append([]int(nil), idx...)
		}
	case EventActiveCurveChanged:
		cur.ActiveCurve, cur.HasActive = ev.ActiveCurve, ev.HasActive
	case EventFrameChanged:
		cur.Frame = ev.Frame
	case EventDisplayChanged:
		cur.Mode = ev.Mode
	}
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
