//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"testing"

	"curvelab/internal/config"
	"curvelab/internal/curve"
	"curvelab/internal/store"
	"curvelab/internal/transform"
)

func testCanvas(t *testing.T) (*CurveCanvas, *store.CurveStore) {
	t.Helper()
	st := store.New()
	if err := st.SetCurveData("trk", []curve.Point{
		{Frame: 1, X: 10, Y: 10},
		{Frame: 2, X: 50, Y: 50},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st.SetShowAll(true)
	viewer := config.ViewerConfig{ViewportWidth: 100, ViewportHeight: 100, PickRadiusPx: 8, PointRadiusPx: 3}
	return NewCurveCanvas(st, transform.NewCache(0), viewer), st
}

func TestCanvasPickNearest(t *testing.T) {
	cc, _ := testCanvas(t)
	name, idx, ok := cc.pick(11, 9)
	if !ok || name != "trk" || idx != 0 {
		t.Fatalf("pick near first point: got %q/%d/%v", name, idx, ok)
	}
	if _, _, ok := cc.pick(80, 80); ok {
		t.Fatalf("pick far from all points must miss")
	}
}

func TestCanvasPruneDropsRemovedCurves(t *testing.T) {
	cc, st := testCanvas(t)
	if err := st.SetCurveData("tmp", []curve.Point{{Frame: 1, X: 30, Y: 30}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cc.pick(30, 30)
	if _, ok := cc.indexes["tmp"]; !ok {
		t.Fatalf("pick should have built an index for tmp")
	}
	st.RemoveCurve("tmp")
	cc.pruneIndexes()
	if _, ok := cc.indexes["tmp"]; ok {
		t.Fatalf("index for a removed curve must be pruned")
	}
	if _, ok := cc.indexes["trk"]; !ok {
		t.Fatalf("index for a live curve must survive pruning")
	}
}

func TestCanvasPickTracksDataChanges(t *testing.T) {
	cc, st := testCanvas(t)
	if _, idx, ok := cc.pick(50, 50); !ok || idx != 1 {
		t.Fatalf("expected second point hit, got %d/%v", idx, ok)
	}
	if _, err := st.UpdatePoint("trk", 1, curve.Point{Frame: 2, X: 90, Y: 90}); err != nil {
		t.Fatalf("UpdatePoint: %v", err)
	}
	// Stale screen position must miss after the version bump forces a rebuild.
	if _, _, ok := cc.pick(50, 50); ok {
		t.Fatalf("pick hit a moved point at its old position")
	}
	if _, idx, ok := cc.pick(90, 90); !ok || idx != 1 {
		t.Fatalf("pick at new position: got %d/%v", idx, ok)
	}
}
