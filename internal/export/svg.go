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
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"curvelab/internal/store"
	"curvelab/internal/transform"
)

// WriteSVG renders the visible curves as a standalone SVG document.
// Coordinates are emitted in screen space so the file matches the raster
// output pixel for pixel.
func WriteSVG(st *store.CurveStore, tf *transform.Transform, outPath string, opt Options) error {
	plot, err := Snapshot(st, tf, opt)
	if err != nil {
		return err
	}
	if plot.Width <= 0 || plot.Height <= 0 {
		return fmt.Errorf("viewport %dx%d is not drawable", plot.Width, plot.Height)
	}

	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		plot.Width, plot.Height, plot.Width, plot.Height)
	fmt.Fprintf(&b, "  <rect width=\"%d\" height=\"%d\" fill=\"#ffffff\"/>\n", plot.Width, plot.Height)

	r := opt.pointRadius()
	for _, cp := range plot.Curves {
		fmt.Fprintf(&b, "  <g data-curve=\"%s\">\n", xmlEscape(cp.Name))
		if len(cp.Screen) > 1 {
			b.WriteString("    <polyline fill=\"none\" stroke=\"#4d4d59\" stroke-width=\"1.2\" points=\"")
			for i, s := range cp.Screen {
				if i > 0 {
					b.WriteByte(' ')
				}
				fmt.Fprintf(&b, "%.2f,%.2f", s[0], s[1])
			}
			b.WriteString("\"/>\n")
		}
		for i, s := range cp.Screen {
			cr, cg, cb := statusColor(cp.Points[i].Status)
			fmt.Fprintf(&b, "    <circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.1f\" fill=\"%s\"/>\n",
				s[0], s[1], r, hexColor(cr, cg, cb))
			if cp.Selected[i] {
				fmt.Fprintf(&b, "    <circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.1f\" fill=\"none\" stroke=\"#1a1a1a\" stroke-width=\"1.5\"/>\n",
					s[0], s[1], r+2)
			}
			if opt.MarkFrame && cp.Points[i].Frame == plot.Frame {
				fmt.Fprintf(&b, "    <circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.1f\" fill=\"none\" stroke=\"#d91a1a\"/>\n",
					s[0], s[1], r+4)
			}
		}
		if opt.Labels && len(cp.Screen) > 0 {
			fmt.Fprintf(&b, "    <text x=\"%.2f\" y=\"%.2f\" font-family=\"monospace\" font-size=\"12\" fill=\"#1a1a1a\">%s</text>\n",
				cp.Screen[0][0]+r+3, cp.Screen[0][1]-r-3, xmlEscape(cp.Name))
		}
		b.WriteString("  </g>\n")
	}
	b.WriteString("</svg>\n")

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, b.Bytes(), 0o644)
}

func hexColor(r, g, b float64) string {
	return fmt.Sprintf("#%02x%02x%02x", int(r*255+0.5), int(g*255+0.5), int(b*255+0.5))
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
