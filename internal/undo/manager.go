/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo provides per-curve undo/redo stacks with memory safeguards
// and the generic command contract edit commands call into.
package undo

import (
	"sync"
	"time"
)

// Snapshot is a reversible state blob for one curve. Blob content is
// opaque to the manager; size accounting uses len(Blob).
type Snapshot struct {
	Curve string
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerCurve limits snapshots kept per curve (0 means unlimited).
	MaxPerCurve int
	// MinInterval coalesces snapshots captured within the interval for the
	// same curve, replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

// Manager keeps in-memory undo/redo stacks per curve name.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex

	undo map[string][]Snapshot
	redo map[string][]Snapshot

	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records a before-edit snapshot for a curve. If within MinInterval
// of the previous snapshot for the same curve it coalesces into that
// entry, so a drag gesture lands as one undo step. Any push clears the
// curve's redo stack. Returns whether a new entry was appended; a
// coalesced push reports false.
func (m *Manager) Push(s Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.Curve]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// coalesce in place, keeping the older blob (it is the state
			// further back in time, which is what undo should restore)
			m.redo[s.Curve] = nil
			return false
		}
	}
	stack = append(stack, s)
	m.undo[s.Curve] = stack
	m.totalBytes += len(s.Blob)
	m.redo[s.Curve] = nil
	m.enforceCapsLocked(s.Curve)
	return true
}

// Undo pops the most recent snapshot for the curve and pushes current (the
// caller-provided present state) onto the redo stack. Returns the popped
// snapshot to restore, or false when there is nothing to undo.
func (m *Manager) Undo(name string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[name]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[name] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[name] = append(m.redo[name], Snapshot{Curve: name, Blob: current, TS: time.Now()})
	return s, true
}

// Redo pops from the redo stack and pushes current back onto undo.
func (m *Manager) Redo(name string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[name]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[name] = r[:len(r)-1]
	m.undo[name] = append(m.undo[name], Snapshot{Curve: name, Blob: current, TS: time.Now()})
	m.totalBytes += len(current)
	m.enforceCapsLocked(name)
	return s, true
}

// Pop discards and returns the most recent undo snapshot without touching
// the redo stack. Used to roll back a failed command.
func (m *Manager) Pop(name string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[name]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[name] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	return s, true
}

// CanUndo reports whether the curve has undo history.
func (m *Manager) CanUndo(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[name]) > 0
}

// CanRedo reports whether the curve has redo history.
func (m *Manager) CanRedo(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[name]) > 0
}

// Clear drops undo/redo history for a curve, e.g. when it is removed.
func (m *Manager) Clear(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[name] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, name)
	delete(m.redo, name)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes, curves, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	curves = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, curves, totalSnapshots
}

func (m *Manager) enforceCapsLocked(name string) {
	if m.cfg.MaxPerCurve > 0 {
		stack := m.undo[name]
		if len(stack) > m.cfg.MaxPerCurve {
			toDrop := len(stack) - m.cfg.MaxPerCurve
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[name] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// global cap: prune oldest across all curves
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestCurve := ""
		oldestIdx := -1
		var oldestTS time.Time
		for curveName, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestCurve = curveName
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestCurve]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestCurve] = stack[1:]
		if len(m.undo[oldestCurve]) == 0 {
			delete(m.undo, oldestCurve)
		}
	}
}
