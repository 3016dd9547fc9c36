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
	"testing"
	"time"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1 << 20, MaxPerCurve: 10, MinInterval: 10 * time.Millisecond})
	m.Push(Snapshot{Curve: "Track1", Blob: []byte("a"), TS: time.Now()})
	m.Push(Snapshot{Curve: "Track1", Blob: []byte("b"), TS: time.Now().Add(20 * time.Millisecond)})
	if _, curves, total := m.Stats(); curves != 1 || total != 2 {
		t.Fatalf("expected 1 curve and 2 snapshots, got curves=%d total=%d", curves, total)
	}

	s, ok := m.Undo("Track1", []byte("current"))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	// redo restores what was current at undo time
	s, ok = m.Redo("Track1", []byte("b"))
	if !ok || string(s.Blob) != "current" {
		t.Fatalf("redo expected 'current', got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestUndoEmpty(t *testing.T) {
	m := NewManager(Config{})
	if _, ok := m.Undo("nope", nil); ok {
		t.Fatalf("undo on empty stack succeeded")
	}
	if _, ok := m.Redo("nope", nil); ok {
		t.Fatalf("redo on empty stack succeeded")
	}
}

func TestCoalesceKeepsOlderState(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1 << 20, MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	if !m.Push(Snapshot{Curve: "A", Blob: []byte("oldest"), TS: t0}) {
		t.Fatalf("first push must append")
	}
	if m.Push(Snapshot{Curve: "A", Blob: []byte("mid"), TS: t0.Add(10 * time.Millisecond)}) {
		t.Fatalf("push inside the interval must coalesce, not append")
	}
	if _, _, total := m.Stats(); total != 1 {
		t.Fatalf("expected coalescing to 1 snapshot, got %d", total)
	}
	s, ok := m.Undo("A", nil)
	if !ok || string(s.Blob) != "oldest" {
		t.Fatalf("coalesced undo should restore the older state, got %q", string(s.Blob))
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	m.Push(Snapshot{Curve: "A", Blob: []byte("1"), TS: time.Now()})
	if _, ok := m.Undo("A", []byte("2")); !ok {
		t.Fatalf("undo failed")
	}
	if !m.CanRedo("A") {
		t.Fatalf("redo stack should be populated after undo")
	}
	m.Push(Snapshot{Curve: "A", Blob: []byte("3"), TS: time.Now().Add(5 * time.Millisecond)})
	if m.CanRedo("A") {
		t.Fatalf("new edit must clear the redo stack")
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerCurve: 2, MinInterval: time.Millisecond})
	for i := 0; i < 10; i++ {
		m.Push(Snapshot{Curve: "A", Blob: []byte("xxxxx"), TS: time.Now().Add(time.Duration(i*2) * time.Millisecond)})
	}
	if _, _, total := m.Stats(); total > 2 {
		t.Fatalf("MaxPerCurve cap not enforced: %d snapshots", total)
	}
	bytes, _, _ := m.Stats()
	if bytes > 20 {
		t.Fatalf("MaxBytes cap not enforced: %d bytes", bytes)
	}
}

func TestClear(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	m.Push(Snapshot{Curve: "A", Blob: []byte("a"), TS: time.Now()})
	m.Push(Snapshot{Curve: "B", Blob: []byte("b"), TS: time.Now()})
	m.Clear("A")
	if m.CanUndo("A") {
		t.Fatalf("history for A survived Clear")
	}
	if !m.CanUndo("B") {
		t.Fatalf("Clear(A) dropped history for B")
	}
}

func TestPop(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	m.Push(Snapshot{Curve: "A", Blob: []byte("a"), TS: time.Now()})
	s, ok := m.Pop("A")
	if !ok || string(s.Blob) != "a" {
		t.Fatalf("Pop returned (%q,%v)", string(s.Blob), ok)
	}
	if m.CanUndo("A") || m.CanRedo("A") {
		t.Fatalf("Pop must not leave history behind")
	}
}
