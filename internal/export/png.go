/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"curvelab/internal/store"
	"curvelab/internal/transform"
)

// WritePNG renders the visible curves to a raster image at outPath.
// The image size follows the transform's viewport.
func WritePNG(st *store.CurveStore, tf *transform.Transform, outPath string, opt Options) error {
	plot, err := Snapshot(st, tf, opt)
	if err != nil {
		return err
	}
	if plot.Width <= 0 || plot.Height <= 0 {
		return fmt.Errorf("viewport %dx%d is not drawable", plot.Width, plot.Height)
	}
	dc := gg.NewContext(plot.Width, plot.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if opt.Labels {
		face, ferr := labelFace(12)
		if ferr != nil {
			return fmt.Errorf("load label font: %w", ferr)
		}
		dc.SetFontFace(face)
	}

	r := opt.pointRadius()
	for _, cp := range plot.Curves {
		// Trajectory polyline first, markers on top.
		if len(cp.Screen) > 1 {
			dc.SetRGB(0.3, 0.3, 0.35)
			dc.SetLineWidth(1.2)
			dc.MoveTo(cp.Screen[0][0], cp.Screen[0][1])
			for _, s := range cp.Screen[1:] {
				dc.LineTo(s[0], s[1])
			}
			dc.Stroke()
		}
		for i, s := range cp.Screen {
			cr, cg, cb := statusColor(cp.Points[i].Status)
			dc.SetRGB(cr, cg, cb)
			dc.DrawCircle(s[0], s[1], r)
			dc.Fill()
			if cp.Selected[i] {
				dc.SetRGB(0.1, 0.1, 0.1)
				dc.SetLineWidth(1.5)
				dc.DrawCircle(s[0], s[1], r+2)
				dc.Stroke()
			}
			if opt.MarkFrame && cp.Points[i].Frame == plot.Frame {
				dc.SetRGB(0.85, 0.1, 0.1)
				dc.SetLineWidth(1)
				dc.DrawCircle(s[0], s[1], r+4)
				dc.Stroke()
			}
		}
		if opt.Labels && len(cp.Screen) > 0 {
			dc.SetRGB(0.1, 0.1, 0.1)
			dc.DrawString(cp.Name, cp.Screen[0][0]+r+3, cp.Screen[0][1]-r-3)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return dc.SavePNG(outPath)
}

func labelFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}
