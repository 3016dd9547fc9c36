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
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"curvelab/internal/config"
	"curvelab/internal/crash"
	"curvelab/internal/curve"
	applog "curvelab/internal/log"
	"curvelab/internal/session"
	"curvelab/internal/spatial"
	"curvelab/internal/store"
	"curvelab/internal/telemetry"
	"curvelab/internal/transform"
	"curvelab/internal/undo"
)

// Run starts the Fyne-based curve viewer/editor.
func Run(sessionDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var h *session.Handle
	defer func() { crash.Recover(h) }()

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	st := store.New()
	rec := undo.NewRecorder(st, undo.Config{
		MaxBytes:    32 * 1024 * 1024,
		MaxPerCurve: 20,
		MinInterval: 300 * time.Millisecond,
	})
	cache := transform.NewCache(0)

	fyneApp := app.NewWithID("curvelab")
	w := fyneApp.NewWindow("CurveLab")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", cfg.Viewer.ViewportWidth)
	winH := prefs.IntWithFallback("window.height", cfg.Viewer.ViewportHeight)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	cc := NewCurveCanvas(st, cache, cfg.Viewer)

	// Curve list (left)
	curveNames := []string{}
	curveList := widget.NewList(
		func() int { return len(curveNames) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(curveNames) {
				o.(*widget.Label).SetText(curveNames[i])
			} else {
				o.(*widget.Label).SetText("")
			}
		},
	)
	refreshCurveList := func() {
		curveNames = st.CurveNames()
		curveList.Refresh()
	}
	curveList.OnSelected = func(id widget.ListItemID) {
		if id < 0 || int(id) >= len(curveNames) {
			return
		}
		name := curveNames[id]
		st.SetActiveCurve(name)
		l.Info("curve activated", slog.String("curve", name))
	}

	// Frame slider (bottom)
	frameSlider := widget.NewSlider(0, 500)
	frameSlider.Step = 1
	frameLabel := widget.NewLabel("Frame 0")
	frameSlider.OnChanged = func(v float64) {
		st.SetFrame(int(v))
	}

	showAll := widget.NewCheck("Show all curves", func(on bool) {
		st.SetShowAll(on)
	})

	undoBtn := widget.NewButton("Undo", func() {
		name, ok := st.ActiveCurve()
		if !ok {
			status.SetText("No active curve to undo")
			return
		}
		if done, err := rec.Undo(name); err != nil {
			dialog.ShowError(err, w)
		} else if !done {
			status.SetText("Nothing to undo")
		} else {
			telemetry.EditOp("undo", 1, st.PointCount(name))
		}
	})
	redoBtn := widget.NewButton("Redo", func() {
		name, ok := st.ActiveCurve()
		if !ok {
			status.SetText("No active curve to redo")
			return
		}
		if done, err := rec.Redo(name); err != nil {
			dialog.ShowError(err, w)
		} else if !done {
			status.SetText("Nothing to redo")
		} else {
			telemetry.EditOp("redo", 1, st.PointCount(name))
		}
	})
	saveBtn := widget.NewButton("Save", func() {
		if h == nil {
			status.SetText("No session open")
			return
		}
		h.Doc = session.FromStore(st, h.Doc.Name)
		if err := session.Save(h); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Session saved")
	})

	// Point edits route through the recorder so every gesture is undoable.
	cc.OnMovePoint = func(name string, index int, x, y float64) {
		err := rec.Apply(name, func() error {
			pts := st.CurveData(name)
			if index < 0 || index >= len(pts) {
				return fmt.Errorf("point index %d out of range", index)
			}
			p := pts[index]
			p.X, p.Y = x, y
			_, err := st.UpdatePoint(name, index, p)
			return err
		})
		if err != nil {
			l.Warn("move point rejected", slog.String("curve", name), slog.Any("err", err))
		}
	}
	cc.OnPickPoint = func(name string, index int) {
		st.Batch(func() {
			st.SetActiveCurve(name)
			st.SetSelection(name, []int{index})
		})
		status.SetText(fmt.Sprintf("%s [%d]", name, index))
	}

	// One subscription drives every view; kinds arrive coalesced per batch.
	st.Subscribe(func(ev store.Event) {
		switch ev.Kind {
		case store.EventCurvesChanged:
			refreshCurveList()
			cc.pruneIndexes()
			cc.Refresh()
		case store.EventSelectionChanged:
			cc.Refresh()
		case store.EventActiveCurveChanged:
			cc.Refresh()
		case store.EventFrameChanged:
			frameLabel.SetText(fmt.Sprintf("Frame %d", ev.Frame))
			cc.Refresh()
		case store.EventDisplayChanged:
			cc.Refresh()
		}
	})

	if sessionDir != "" {
		opened, err := session.Open(sessionDir)
		if err != nil {
			return fmt.Errorf("open session %s: %w", sessionDir, err)
		}
		h = opened
		if err := session.ApplyToStore(h.Doc, st); err != nil {
			return fmt.Errorf("load session state: %w", err)
		}
		refreshCurveList()
		frameSlider.SetValue(float64(st.Frame()))
		showAll.SetChecked(st.ShowAll())
		status.SetText("Opened " + sessionDir)
		l.Info("session opened", slog.String("root", sessionDir), slog.Int("curves", len(curveNames)))
	}

	top := container.NewHBox(saveBtn, undoBtn, redoBtn, showAll)
	bottom := container.NewBorder(nil, nil, frameLabel, status, frameSlider)
	left := container.NewBorder(widget.NewLabel("Curves"), nil, nil, nil, curveList)
	content := container.NewBorder(top, bottom, left, nil, cc)
	w.SetContent(content)

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})

	w.ShowAndRun()
	return nil
}

// CurveCanvas renders the visible curves and handles pick, drag and zoom.
type CurveCanvas struct {
	widget.BaseWidget

	st    *store.CurveStore
	cache *transform.Cache

	params      transform.Params
	indexes     map[string]*spatial.Index
	pickRadius  float64
	pointRadius float64

	// Interaction state
	dragCurve  string
	dragIndex  int
	dragActive bool

	OnPickPoint func(curveName string, index int)
	OnMovePoint func(curveName string, index int, x, y float64)
}

func NewCurveCanvas(st *store.CurveStore, cache *transform.Cache, viewer config.ViewerConfig) *CurveCanvas {
	cc := &CurveCanvas{
		st:          st,
		cache:       cache,
		params:      transform.DefaultParams(float64(viewer.ViewportWidth), float64(viewer.ViewportHeight)),
		indexes:     make(map[string]*spatial.Index),
		pickRadius:  viewer.PickRadiusPx,
		pointRadius: viewer.PointRadiusPx,
		dragIndex:   -1,
	}
	if cc.pickRadius <= 0 {
		cc.pickRadius = 12
	}
	if cc.pointRadius <= 0 {
		cc.pointRadius = 3
	}
	cc.ExtendBaseWidget(cc)
	return cc
}

// Transform returns the transform for the current viewport snapshot.
func (cc *CurveCanvas) Transform() *transform.Transform {
	return cc.cache.Get(cc.params)
}

func (cc *CurveCanvas) syncViewport() {
	size := cc.Size()
	if w := float64(size.Width); w > 0 {
		cc.params.ViewportW = w
	}
	if h := float64(size.Height); h > 0 {
		cc.params.ViewportH = h
	}
}

// pruneIndexes drops spatial indexes for curves that no longer exist, so
// the per-curve map does not grow for the lifetime of the window.
func (cc *CurveCanvas) pruneIndexes() {
	for name := range cc.indexes {
		if !cc.st.HasCurve(name) {
			delete(cc.indexes, name)
		}
	}
}

// pick returns the nearest point across visible curves within pickRadius.
func (cc *CurveCanvas) pick(sx, sy float64) (string, int, bool) {
	tf := cc.Transform()
	bestName, bestIdx := "", -1
	bestDist := math.Inf(1)
	for _, name := range cc.st.VisibleCurves() {
		ix, ok := cc.indexes[name]
		if !ok {
			ix = spatial.NewIndex()
			cc.indexes[name] = ix
		}
		stamp := spatial.Stamp{Data: cc.st.CurveVersion(name), Transform: cc.cache.Version()}
		pts := cc.st.CurveData(name)
		ix.Ensure(stamp, func() []spatial.Point {
			out := make([]spatial.Point, len(pts))
			for i, p := range pts {
				x, y := tf.DataToScreen(p.X, p.Y)
				out[i] = spatial.Point{X: x, Y: y}
			}
			return out
		})
		idx, ok := ix.FindNearest(sx, sy, cc.pickRadius)
		if !ok {
			continue
		}
		px, py := tf.DataToScreen(pts[idx].X, pts[idx].Y)
		d := math.Hypot(px-sx, py-sy)
		if d < bestDist {
			bestName, bestIdx, bestDist = name, idx, d
		}
	}
	return bestName, bestIdx, bestIdx >= 0
}

// Tapped selects the nearest point under the cursor, if any.
func (cc *CurveCanvas) Tapped(ev *fyne.PointEvent) {
	cc.syncViewport()
	name, idx, ok := cc.pick(float64(ev.Position.X), float64(ev.Position.Y))
	if !ok {
		return
	}
	if cc.OnPickPoint != nil {
		cc.OnPickPoint(name, idx)
	}
}

// Dragged moves a picked point, or pans the view when nothing was hit.
func (cc *CurveCanvas) Dragged(ev *fyne.DragEvent) {
	cc.syncViewport()
	if !cc.dragActive {
		name, idx, ok := cc.pick(float64(ev.Position.X), float64(ev.Position.Y))
		cc.dragActive = true
		if ok {
			cc.dragCurve, cc.dragIndex = name, idx
			if cc.OnPickPoint != nil {
				cc.OnPickPoint(name, idx)
			}
		} else {
			cc.dragCurve, cc.dragIndex = "", -1
		}
	}
	if cc.dragIndex >= 0 {
		tf := cc.Transform()
		x, y := tf.ScreenToData(float64(ev.Position.X), float64(ev.Position.Y))
		if cc.OnMovePoint != nil {
			cc.OnMovePoint(cc.dragCurve, cc.dragIndex, x, y)
		}
		return
	}
	cc.params.PanX += float64(ev.Dragged.DX)
	dy := float64(ev.Dragged.DY)
	if cc.params.FlipY {
		dy = -dy
	}
	cc.params.PanY += dy
	cc.Refresh()
}

// DragEnd finishes the current gesture.
func (cc *CurveCanvas) DragEnd() {
	cc.dragActive = false
	cc.dragCurve, cc.dragIndex = "", -1
}

// Scrolled zooms around the cursor so the data point under it stays put.
func (cc *CurveCanvas) Scrolled(ev *fyne.ScrollEvent) {
	cc.syncViewport()
	factor := math.Pow(1.1, float64(ev.Scrolled.DY)/40)
	newZoom := cc.params.Zoom * factor
	if newZoom < 1e-4 || newZoom > 1e6 {
		return
	}
	tf := cc.Transform()
	cx, cy := float64(ev.Position.X), float64(ev.Position.Y)
	dx, dy := tf.ScreenToData(cx, cy)
	cc.params.Zoom = newZoom
	sy := cy
	if cc.params.FlipY {
		sy = cc.params.ViewportH - cy
	}
	cc.params.PanX = cx - dx*newZoom
	cc.params.PanY = sy - dy*newZoom
	cc.Refresh()
}

// CreateRenderer rebuilds the line/marker objects on every refresh; curve
// counts change at runtime so the object set is dynamic.
func (cc *CurveCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	r := &curveCanvasRenderer{cc: cc, bg: bg}
	r.rebuild()
	return r
}

type curveCanvasRenderer struct {
	cc      *CurveCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func statusFill(s curve.PointStatus) color.Color {
	switch s {
	case curve.StatusKeyframe:
		return color.RGBA{R: 242, G: 140, B: 26, A: 255}
	case curve.StatusInterpolated:
		return color.RGBA{R: 140, G: 140, B: 153, A: 255}
	case curve.StatusEndframe:
		return color.RGBA{R: 217, G: 51, B: 51, A: 255}
	case curve.StatusTracked:
		return color.RGBA{R: 38, G: 166, B: 77, A: 255}
	default:
		return color.RGBA{R: 64, G: 115, B: 217, A: 255}
	}
}

func (r *curveCanvasRenderer) rebuild() {
	cc := r.cc
	cc.syncViewport()
	tf := cc.Transform()
	active, hasActive := cc.st.ActiveCurve()
	frame := cc.st.Frame()
	pr := float32(cc.pointRadius)

	objs := []fyne.CanvasObject{r.bg}
	for _, name := range cc.st.VisibleCurves() {
		pts := cc.st.CurveData(name)
		selected := map[int]bool{}
		for _, i := range cc.st.Selection(name) {
			selected[i] = true
		}
		lineCol := color.RGBA{R: 120, G: 120, B: 130, A: 255}
		if hasActive && name == active {
			lineCol = color.RGBA{R: 200, G: 200, B: 215, A: 255}
		}
		var prevX, prevY float32
		for i, p := range pts {
			xf, yf := tf.DataToScreen(p.X, p.Y)
			x, y := float32(xf), float32(yf)
			if i > 0 {
				ln := canvas.NewLine(lineCol)
				ln.StrokeWidth = 1.2
				ln.Position1 = fyne.NewPos(prevX, prevY)
				ln.Position2 = fyne.NewPos(x, y)
				objs = append(objs, ln)
			}
			prevX, prevY = x, y
		}
		for i, p := range pts {
			xf, yf := tf.DataToScreen(p.X, p.Y)
			x, y := float32(xf), float32(yf)
			rad := pr
			if p.Frame == frame {
				rad = pr + 2
			}
			c := canvas.NewCircle(statusFill(p.Status))
			if selected[i] {
				c.StrokeColor = color.White
				c.StrokeWidth = 1.5
			}
			c.Position1 = fyne.NewPos(x-rad, y-rad)
			c.Position2 = fyne.NewPos(x+rad, y+rad)
			objs = append(objs, c)
		}
	}
	r.objects = objs
}

func (r *curveCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
}

func (r *curveCanvasRenderer) MinSize() fyne.Size { return fyne.NewSize(400, 300) }

func (r *curveCanvasRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.cc.Size())
	canvas.Refresh(r.bg)
}

func (r *curveCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *curveCanvasRenderer) Destroy() {}
