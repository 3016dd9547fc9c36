/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package store holds the single source of truth for the editor: all
// curves, per-curve point selections, the active curve, the frame cursor
// and the computed display mode. Mutations are synchronous, emit typed
// change events, and may be grouped into batches that coalesce to one
// notification per signal type.
//
// The store is thread-confined: it is created on its owner goroutine and
// asserts that all mutations happen there. It has no internal locking.
package store

import (
	"log/slog"
	"sort"

	"curvelab/internal/curve"
	applog "curvelab/internal/log"
)

// DisplayMode is the computed visibility policy. It is never stored; it is
// derived from the display-selected curve names and the show-all flag, so
// visual state cannot diverge from the underlying selection.
type DisplayMode int

const (
	// ModeActiveOnly shows only the active curve.
	ModeActiveOnly DisplayMode = iota
	// ModeSelected shows the display-selected curves.
	ModeSelected
	// ModeAll shows every curve.
	ModeAll
)

func (m DisplayMode) String() string {
	switch m {
	case ModeActiveOnly:
		return "active-only"
	case ModeSelected:
		return "selected"
	case ModeAll:
		return "all"
	}
	return "unknown"
}

// CurveStore is the reactive multi-curve data store.
type CurveStore struct {
	log *slog.Logger

	owner      uint64
	ownerCheck bool

	curves        map[string][]curve.Point
	curveVersions map[string]uint64
	version       uint64

	selections map[string]map[int]struct{}

	displaySel map[string]struct{}
	showAll    bool

	active    string
	hasActive bool

	frame int

	events dispatcher
}

// New creates an empty store owned by the calling goroutine. The ownership
// assertion is enabled by default; SetOwnerCheck(false) disables it for
// integrations that uphold confinement by construction.
func New() *CurveStore {
	return &CurveStore{
		log:           applog.WithComponent("store"),
		owner:         goid(),
		ownerCheck:    true,
		curves:        make(map[string][]curve.Point),
		curveVersions: make(map[string]uint64),
		selections:    make(map[string]map[int]struct{}),
		displaySel:    make(map[string]struct{}),
	}
}

// SetOwnerCheck toggles the owner-goroutine assertion.
func (s *CurveStore) SetOwnerCheck(on bool) { s.ownerCheck = on }

// Rebind transfers ownership to the calling goroutine.
func (s *CurveStore) Rebind() { s.owner = goid() }

func (s *CurveStore) assertOwner() {
	if !s.ownerCheck {
		return
	}
	if id := goid(); id != s.owner {
		panic(&ThreadAssertionError{Owner: s.owner, Caller: id})
	}
}

// Subscribe registers a listener for all event kinds and returns its id.
func (s *CurveStore) Subscribe(fn Listener) int {
	s.assertOwner()
	return s.events.subscribe(fn)
}

// Unsubscribe removes a listener by id.
func (s *CurveStore) Unsubscribe(id int) {
	s.assertOwner()
	s.events.unsubscribe(id)
}

// BeginBatch opens a notification batch. Batches nest; only the outermost
// EndBatch delivers the coalesced events. State changes remain immediately
// visible to readers throughout.
func (s *CurveStore) BeginBatch() {
	s.assertOwner()
	s.events.beginBatch()
}

// EndBatch closes one batch level and, at the outermost level, delivers at
// most one event per affected signal type.
func (s *CurveStore) EndBatch() {
	s.assertOwner()
	s.events.endBatch()
}

// Batch runs fn inside a BeginBatch/EndBatch pair.
func (s *CurveStore) Batch(fn func()) {
	s.BeginBatch()
	defer s.EndBatch()
	fn()
}

// SetCurveData replaces a curve's full point list, creating the curve if it
// does not exist. The input is validated up front; on failure the store is
// left unchanged. An empty list is a valid state distinct from absence.
// Replacing with an equal list does not bump the version or notify, the
// same no-op policy the other mutators follow.
func (s *CurveStore) SetCurveData(name string, pts []curve.Point) error {
	s.assertOwner()
	if err := curve.ValidatePoints(pts); err != nil {
		return err
	}
	if cur, ok := s.curves[name]; ok && pointsEqual(cur, pts) {
		return nil
	}
	s.curves[name] = append([]curve.Point(nil), pts...)
	s.bump(name)
	changedSel := s.repairSelection(name)
	s.log.Debug("set curve data", slog.String("curve", name), slog.Int("points", len(pts)))
	s.emitCurves(name)
	if changedSel {
		s.emitSelection(name)
	}
	return nil
}

// CurveData returns a defensive copy of the curve's points, or nil when the
// curve does not exist. Absence is a normal condition, not an error.
func (s *CurveStore) CurveData(name string) []curve.Point {
	pts, ok := s.curves[name]
	if !ok {
		return nil
	}
	return append([]curve.Point(nil), pts...)
}

// HasCurve reports whether the named curve exists (possibly empty).
func (s *CurveStore) HasCurve(name string) bool {
	_, ok := s.curves[name]
	return ok
}

// CurveNames returns all curve names in sorted order.
func (s *CurveStore) CurveNames() []string {
	out := make([]string, 0, len(s.curves))
	for n := range s.curves {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// PointCount returns the number of points in the curve, 0 when absent.
func (s *CurveStore) PointCount(name string) int { return len(s.curves[name]) }

// AddPoint inserts a point at its frame-ordered position, creating the
// curve on first assignment. A duplicate frame is a validation failure.
// Selection indices at or after the insertion position shift up by one so
// they keep addressing the same points.
func (s *CurveStore) AddPoint(name string, p curve.Point) error {
	s.assertOwner()
	if err := curve.ValidatePoint(p); err != nil {
		return err
	}
	pts := s.curves[name]
	idx, exists := curve.InsertIndex(pts, p.Frame)
	if exists {
		return curve.Validationf("curve %q already has a point at frame %d", name, p.Frame)
	}
	pts = append(pts, curve.Point{})
	copy(pts[idx+1:], pts[idx:])
	pts[idx] = p
	s.curves[name] = pts
	s.bump(name)
	changedSel := s.shiftSelectionFrom(name, idx, +1)
	s.emitCurves(name)
	if changedSel {
		s.emitSelection(name)
	}
	return nil
}

// UpdatePoint replaces the point at index. It returns false when the curve
// or index does not exist, and a ValidationError when the replacement is
// malformed or its frame would break the frame ordering.
func (s *CurveStore) UpdatePoint(name string, index int, p curve.Point) (bool, error) {
	s.assertOwner()
	pts, ok := s.curves[name]
	if !ok || index < 0 || index >= len(pts) {
		return false, nil
	}
	if err := curve.ValidatePoint(p); err != nil {
		return false, err
	}
	if index > 0 && pts[index-1].Frame >= p.Frame {
		return false, curve.Validationf("frame %d collides with predecessor at index %d", p.Frame, index-1)
	}
	if index < len(pts)-1 && pts[index+1].Frame <= p.Frame {
		return false, curve.Validationf("frame %d collides with successor at index %d", p.Frame, index+1)
	}
	pts[index] = p
	s.bump(name)
	s.emitCurves(name)
	return true, nil
}

// RemovePoint deletes the point at index, repairing the selection: the
// removed index is dropped and higher indices shift down. Returns false
// for a missing curve or out-of-range index.
func (s *CurveStore) RemovePoint(name string, index int) bool {
	s.assertOwner()
	pts, ok := s.curves[name]
	if !ok || index < 0 || index >= len(pts) {
		return false
	}
	s.curves[name] = append(pts[:index], pts[index+1:]...)
	s.bump(name)
	changedSel := s.dropSelectionIndex(name, index)
	s.emitCurves(name)
	if changedSel {
		s.emitSelection(name)
	}
	return true
}

// RemoveCurve destroys a curve together with its selection and any
// display-selection or active-curve reference to it. Removing the active
// curve clears the active curve. Returns false when the curve is absent.
func (s *CurveStore) RemoveCurve(name string) bool {
	s.assertOwner()
	if _, ok := s.curves[name]; !ok {
		return false
	}
	modeBefore := s.DisplayMode()
	delete(s.curves, name)
	delete(s.curveVersions, name)
	delete(s.selections, name)
	_, displayed := s.displaySel[name]
	delete(s.displaySel, name)
	s.version++
	s.log.Debug("remove curve", slog.String("curve", name))
	if s.hasActive && s.active == name {
		s.active, s.hasActive = "", false
		s.emitActive()
	}
	s.emitCurves(name)
	if displayed || s.DisplayMode() != modeBefore {
		s.emitDisplay()
	}
	return true
}

// SetSelection replaces the curve's point selection. Out-of-range indices
// are silently dropped; that filtering is the documented policy, not a
// defect. A missing curve is a no-op.
func (s *CurveStore) SetSelection(name string, indices []int) {
	s.assertOwner()
	pts, ok := s.curves[name]
	if !ok {
		return
	}
	next := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(pts) {
			next[i] = struct{}{}
		}
	}
	if selectionEqual(s.selections[name], next) {
		return
	}
	s.selections[name] = next
	s.emitSelection(name)
}

// Selection returns the curve's selected indices in ascending order.
func (s *CurveStore) Selection(name string) []int {
	sel := s.selections[name]
	out := make([]int, 0, len(sel))
	for i := range sel {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SetActiveCurve makes name the active curve. Returns false when the curve
// does not exist, leaving the current active curve untouched. It never
// mutates any curve's selection.
func (s *CurveStore) SetActiveCurve(name string) bool {
	s.assertOwner()
	if _, ok := s.curves[name]; !ok {
		return false
	}
	if s.hasActive && s.active == name {
		return true
	}
	s.active, s.hasActive = name, true
	s.emitActive()
	return true
}

// ClearActiveCurve resets the store to having no active curve.
func (s *CurveStore) ClearActiveCurve() {
	s.assertOwner()
	if !s.hasActive {
		return
	}
	s.active, s.hasActive = "", false
	s.emitActive()
}

// ActiveCurve returns the active curve name and whether one is set.
func (s *CurveStore) ActiveCurve() (string, bool) { return s.active, s.hasActive }

// ResolveCurve resolves an optional curve name: a non-empty name stands for
// itself, an empty name resolves against the active curve. The second
// result is false when there is nothing to resolve to; callers get an
// explicit "no active curve" answer instead of a silent substitution.
func (s *CurveStore) ResolveCurve(name string) (string, bool) {
	if name != "" {
		return name, true
	}
	return s.active, s.hasActive
}

// SetFrame moves the frame cursor.
func (s *CurveStore) SetFrame(frame int) {
	s.assertOwner()
	if frame == s.frame {
		return
	}
	s.frame = frame
	s.emitFrame()
}

// Frame returns the current timeline frame.
func (s *CurveStore) Frame() int { return s.frame }

// SetShowAll toggles the show-all flag driving the display mode.
func (s *CurveStore) SetShowAll(on bool) {
	s.assertOwner()
	if s.showAll == on {
		return
	}
	s.showAll = on
	s.emitDisplay()
}

// ShowAll reports the show-all flag.
func (s *CurveStore) ShowAll() bool { return s.showAll }

// SetDisplaySelection replaces the set of display-selected curve names.
// Names of nonexistent curves are dropped.
func (s *CurveStore) SetDisplaySelection(names []string) {
	s.assertOwner()
	next := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := s.curves[n]; ok {
			next[n] = struct{}{}
		}
	}
	if stringSetEqual(s.displaySel, next) {
		return
	}
	s.displaySel = next
	s.emitDisplay()
}

// DisplaySelection returns the display-selected curve names, sorted.
func (s *CurveStore) DisplaySelection() []string {
	out := make([]string, 0, len(s.displaySel))
	for n := range s.displaySel {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DisplayMode computes the visibility policy from the display selection
// and the show-all flag. There is no setter.
func (s *CurveStore) DisplayMode() DisplayMode {
	if s.showAll {
		return ModeAll
	}
	if len(s.displaySel) > 0 {
		return ModeSelected
	}
	return ModeActiveOnly
}

// VisibleCurves returns the curve names the current display mode shows.
func (s *CurveStore) VisibleCurves() []string {
	switch s.DisplayMode() {
	case ModeAll:
		return s.CurveNames()
	case ModeSelected:
		return s.DisplaySelection()
	default:
		if s.hasActive {
			return []string{s.active}
		}
		return nil
	}
}

// Version returns a counter that advances on every curve data change.
func (s *CurveStore) Version() uint64 { return s.version }

// CurveVersion returns the per-curve data version, 0 when absent.
func (s *CurveStore) CurveVersion(name string) uint64 { return s.curveVersions[name] }

func (s *CurveStore) bump(name string) {
	s.version++
	s.curveVersions[name]++
}

// repairSelection drops indices no longer valid for the curve's length.
// Reports whether the selection changed.
func (s *CurveStore) repairSelection(name string) bool {
	sel := s.selections[name]
	if len(sel) == 0 {
		return false
	}
	n := len(s.curves[name])
	changed := false
	for i := range sel {
		if i >= n {
			delete(sel, i)
			changed = true
		}
	}
	return changed
}

// shiftSelectionFrom shifts selected indices >= from by delta.
func (s *CurveStore) shiftSelectionFrom(name string, from, delta int) bool {
	sel := s.selections[name]
	if len(sel) == 0 {
		return false
	}
	next := make(map[int]struct{}, len(sel))
	changed := false
	for i := range sel {
		if i >= from {
			next[i+delta] = struct{}{}
			changed = true
		} else {
			next[i] = struct{}{}
		}
	}
	if changed {
		s.selections[name] = next
	}
	return changed
}

// dropSelectionIndex removes the deleted index from the selection and
// shifts higher indices down by one.
func (s *CurveStore) dropSelectionIndex(name string, removed int) bool {
	sel := s.selections[name]
	if len(sel) == 0 {
		return false
	}
	next := make(map[int]struct{}, len(sel))
	changed := false
	for i := range sel {
		switch {
		case i == removed:
			changed = true
		case i > removed:
			next[i-1] = struct{}{}
			changed = true
		default:
			next[i] = struct{}{}
		}
	}
	if changed {
		s.selections[name] = next
	}
	return changed
}

func (s *CurveStore) emitCurves(names ...string) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	s.events.emit(Event{Kind: EventCurvesChanged, Curves: sorted})
}

func (s *CurveStore) emitSelection(name string) {
	s.events.emit(Event{
		Kind:       EventSelectionChanged,
		Selections: map[string][]int{name: s.Selection(name)},
	})
}

func (s *CurveStore) emitActive() {
	s.events.emit(Event{Kind: EventActiveCurveChanged, ActiveCurve: s.active, HasActive: s.hasActive})
}

func (s *CurveStore) emitFrame() {
	s.events.emit(Event{Kind: EventFrameChanged, Frame: s.frame})
}

func (s *CurveStore) emitDisplay() {
	s.events.emit(Event{Kind: EventDisplayChanged, Mode: s.DisplayMode()})
}

func pointsEqual(a, b []curve.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func selectionEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if _, ok := b[i]; !ok {
			return false
		}
	}
	return true
}

func stringSetEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if _, ok := b[n]; !ok {
			return false
		}
	}
	return true
}
