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

	"github.com/jung-kurt/gofpdf"

	"curvelab/internal/store"
	"curvelab/internal/transform"
)

// WritePDF writes a trajectory report: a summary page listing every
// exported curve followed by one plot page per curve. Units are points;
// plots are scaled from the viewport to fit the page inside a margin.
func WritePDF(st *store.CurveStore, tf *transform.Transform, outPath string, opt Options) error {
	plot, err := Snapshot(st, tf, opt)
	if err != nil {
		return err
	}
	if plot.Width <= 0 || plot.Height <= 0 {
		return fmt.Errorf("viewport %dx%d is not drawable", plot.Width, plot.Height)
	}

	pdf := gofpdf.New("L", "pt", "A4", "")
	pdf.SetTitle("curvelab trajectory report", false)

	// Summary page.
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(40, 50, "Trajectory report")
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(40, 70, fmt.Sprintf("current frame %d, %d curve(s)", plot.Frame, len(plot.Curves)))
	y := 95.0
	for _, cp := range plot.Curves {
		pdf.Text(50, y, fmt.Sprintf("%s: %d point(s)", cp.Name, len(cp.Points)))
		y += 16
	}

	pageW, pageH := pdf.GetPageSize()
	const margin = 40.0
	scale := (pageW - 2*margin) / float64(plot.Width)
	if s := (pageH - 2*margin - 20) / float64(plot.Height); s < scale {
		scale = s
	}
	px := func(s [2]float64) (float64, float64) {
		return margin + s[0]*scale, margin + 20 + s[1]*scale
	}

	r := opt.pointRadius()
	for _, cp := range plot.Curves {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Text(margin, margin, cp.Name)
		pdf.SetDrawColor(200, 200, 205)
		pdf.Rect(margin, margin+20, float64(plot.Width)*scale, float64(plot.Height)*scale, "D")

		pdf.SetDrawColor(77, 77, 89)
		pdf.SetLineWidth(0.8)
		for i := 1; i < len(cp.Screen); i++ {
			x0, y0 := px(cp.Screen[i-1])
			x1, y1 := px(cp.Screen[i])
			pdf.Line(x0, y0, x1, y1)
		}
		for i, s := range cp.Screen {
			cr, cg, cb := statusColor(cp.Points[i].Status)
			pdf.SetFillColor(int(cr*255), int(cg*255), int(cb*255))
			x, yy := px(s)
			pdf.Circle(x, yy, r, "F")
			if cp.Selected[i] {
				pdf.SetDrawColor(26, 26, 26)
				pdf.Circle(x, yy, r+2, "D")
			}
			if opt.MarkFrame && cp.Points[i].Frame == plot.Frame {
				pdf.SetDrawColor(217, 26, 26)
				pdf.Circle(x, yy, r+4, "D")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}
