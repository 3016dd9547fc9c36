/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package transform

import (
	"math"
	"math/rand"
	"testing"
)

func randParams(rng *rand.Rand) Params {
	return Params{
		Zoom:      0.05 + rng.Float64()*40,
		PanX:      (rng.Float64() - 0.5) * 4000,
		PanY:      (rng.Float64() - 0.5) * 4000,
		FlipY:     rng.Intn(2) == 0,
		ViewportW: 100 + rng.Float64()*3000,
		ViewportH: 100 + rng.Float64()*3000,
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		p := randParams(rng)
		tf := New(p)
		x := (rng.Float64() - 0.5) * 10000
		y := (rng.Float64() - 0.5) * 10000
		sx, sy := tf.DataToScreen(x, y)
		gx, gy := tf.ScreenToData(sx, sy)
		if math.Abs(gx-x) > 1e-6 || math.Abs(gy-y) > 1e-6 {
			t.Fatalf("round trip drifted: params=%+v in=(%g,%g) out=(%g,%g)", p, x, y, gx, gy)
		}
	}
}

func TestFlipYAnchorsToViewport(t *testing.T) {
	p := Params{Zoom: 2, ViewportW: 800, ViewportH: 600, FlipY: true}
	tf := New(p)
	_, sy := tf.DataToScreen(0, 0)
	if sy != 600 {
		t.Fatalf("origin should land on viewport bottom, got %g", sy)
	}
	_, sy = tf.DataToScreen(0, 300)
	if sy != 0 {
		t.Fatalf("y=300 at zoom 2 should land on 0, got %g", sy)
	}
}

func TestVisibleDataRect(t *testing.T) {
	tf := New(Params{Zoom: 2, PanX: 100, PanY: 50, ViewportW: 900, ViewportH: 450})
	x0, y0, x1, y1 := tf.VisibleDataRect()
	if x0 != -50 || y0 != -25 || x1 != 400 || y1 != 200 {
		t.Fatalf("visible rect wrong: (%g,%g)-(%g,%g)", x0, y0, x1, y1)
	}
}

func TestParamsValid(t *testing.T) {
	if !DefaultParams(640, 480).Valid() {
		t.Fatalf("default params should be valid")
	}
	for _, p := range []Params{
		{Zoom: 0, ViewportW: 1, ViewportH: 1},
		{Zoom: 1, ViewportW: 0, ViewportH: 1},
		{Zoom: -2, ViewportW: 1, ViewportH: 1},
	} {
		if p.Valid() {
			t.Fatalf("params %+v should be invalid", p)
		}
	}
}

func TestCacheReusesSameSnapshot(t *testing.T) {
	c := NewCache(4)
	p := DefaultParams(800, 600)
	a := c.Get(p)
	b := c.Get(p)
	if a != b {
		t.Fatalf("same snapshot must return the cached transform")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("stats = (%d,%d), want (1,1)", hits, misses)
	}
}

func TestCacheKeyCoversEveryParameter(t *testing.T) {
	// Omitting any parameter from the key is a correctness bug. Vary each
	// field in isolation and require a distinct transform.
	c := NewCache(0)
	base := Params{Zoom: 2, PanX: 1, PanY: 2, FlipY: false, ViewportW: 800, ViewportH: 600}
	variants := []Params{
		{Zoom: 3, PanX: 1, PanY: 2, FlipY: false, ViewportW: 800, ViewportH: 600},
		{Zoom: 2, PanX: 9, PanY: 2, FlipY: false, ViewportW: 800, ViewportH: 600},
		{Zoom: 2, PanX: 1, PanY: 9, FlipY: false, ViewportW: 800, ViewportH: 600},
		{Zoom: 2, PanX: 1, PanY: 2, FlipY: true, ViewportW: 800, ViewportH: 600},
		{Zoom: 2, PanX: 1, PanY: 2, FlipY: false, ViewportW: 801, ViewportH: 600},
		{Zoom: 2, PanX: 1, PanY: 2, FlipY: false, ViewportW: 800, ViewportH: 601},
	}
	ref := c.Get(base)
	for i, v := range variants {
		if c.Get(v) == ref {
			t.Fatalf("variant %d shares a transform with the base snapshot", i)
		}
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewCache(2)
	p1 := DefaultParams(100, 100)
	p2 := DefaultParams(200, 200)
	p3 := DefaultParams(300, 300)
	t1 := c.Get(p1)
	_ = c.Get(p2)
	_ = c.Get(p3) // evicts p1
	if c.Len() != 2 {
		t.Fatalf("cache size %d, want 2", c.Len())
	}
	if c.Get(p1) == t1 {
		t.Fatalf("evicted entry returned; expected a fresh construction")
	}
}

func TestCacheVersionAdvancesOnActiveChange(t *testing.T) {
	c := NewCache(4)
	p1 := DefaultParams(100, 100)
	p2 := DefaultParams(200, 200)
	v0 := c.Version()
	_ = c.Get(p1)
	if c.Version() == v0 {
		t.Fatalf("first construction should advance version")
	}
	v1 := c.Version()
	_ = c.Get(p1) // same active transform
	if c.Version() != v1 {
		t.Fatalf("repeat lookup of active transform should not advance version")
	}
	_ = c.Get(p2)
	if c.Version() == v1 {
		t.Fatalf("switching active transform should advance version")
	}
}
