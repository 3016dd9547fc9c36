/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"encoding/json"
	"fmt"
	"time"

	"curvelab/internal/curve"
	"curvelab/internal/store"
)

// curveState is the reversible per-curve state a command may touch:
// the point list and the point selection. Exists distinguishes "curve
// with no points" from "no such curve".
type curveState struct {
	Exists    bool          `json:"exists"`
	Points    []curve.Point `json:"points,omitempty"`
	Selection []int         `json:"selection,omitempty"`
}

// Recorder is the generic mutation contract for the edit-command layer:
// it snapshots a curve's state around a mutation so any command becomes
// undoable without knowing the command's particulars.
type Recorder struct {
	mgr *Manager
	st  *store.CurveStore
}

// NewRecorder wires a manager to the store it snapshots.
func NewRecorder(st *store.CurveStore, cfg Config) *Recorder {
	return &Recorder{mgr: NewManager(cfg), st: st}
}

// Manager exposes the underlying snapshot manager for diagnostics.
func (r *Recorder) Manager() *Manager { return r.mgr }

// Apply runs mutate inside a store batch with a before-snapshot pushed to
// the undo stack. If mutate fails, the snapshot is restored so the curve
// is left exactly as before and the failed step is not undoable.
func (r *Recorder) Apply(name string, mutate func() error) error {
	before, err := r.encode(name)
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", name, err)
	}
	pushed := r.mgr.Push(Snapshot{Curve: name, Blob: before, TS: time.Now()})

	var merr error
	r.st.Batch(func() { merr = mutate() })
	if merr != nil {
		// Roll back from the blob captured above, not from the stack: a
		// coalesced push left the stack holding an earlier edit's
		// snapshot, which must survive the failed step untouched.
		if pushed {
			r.mgr.Pop(name)
		}
		if rerr := r.restore(name, before); rerr != nil {
			return fmt.Errorf("mutate %q: %w (rollback also failed: %v)", name, merr, rerr)
		}
		return fmt.Errorf("mutate %q: %w", name, merr)
	}
	return nil
}

// Undo reverts the curve to its most recent snapshot. Returns false when
// there is no history.
func (r *Recorder) Undo(name string) (bool, error) {
	current, err := r.encode(name)
	if err != nil {
		return false, err
	}
	s, ok := r.mgr.Undo(name, current)
	if !ok {
		return false, nil
	}
	return true, r.restore(name, s.Blob)
}

// Redo re-applies the most recently undone state.
func (r *Recorder) Redo(name string) (bool, error) {
	current, err := r.encode(name)
	if err != nil {
		return false, err
	}
	s, ok := r.mgr.Redo(name, current)
	if !ok {
		return false, nil
	}
	return true, r.restore(name, s.Blob)
}

func (r *Recorder) encode(name string) ([]byte, error) {
	st := curveState{Exists: r.st.HasCurve(name)}
	if st.Exists {
		st.Points = r.st.CurveData(name)
		st.Selection = r.st.Selection(name)
	}
	return json.Marshal(st)
}

func (r *Recorder) restore(name string, blob []byte) error {
	var st curveState
	if err := json.Unmarshal(blob, &st); err != nil {
		return fmt.Errorf("decode snapshot for %q: %w", name, err)
	}
	var serr error
	r.st.Batch(func() {
		if !st.Exists {
			r.st.RemoveCurve(name)
			return
		}
		if serr = r.st.SetCurveData(name, st.Points); serr != nil {
			return
		}
		r.st.SetSelection(name, st.Selection)
	})
	return serr
}
