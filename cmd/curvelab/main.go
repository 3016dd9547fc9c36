/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"curvelab/internal/backend"
	"curvelab/internal/config"
	"curvelab/internal/crash"
	"curvelab/internal/export"
	applog "curvelab/internal/log"
	"curvelab/internal/session"
	"curvelab/internal/store"
	"curvelab/internal/transform"
	"curvelab/internal/ui"
	"curvelab/internal/version"
)

func usage() {
	fmt.Println("CurveLab — tracking curve editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curvelab version|-v|--version              Show version")
	fmt.Println("  curvelab init <dir> <name>                 Create a new session at <dir> with name <name>")
	fmt.Println("  curvelab open <dir>                        Open session at <dir> and print summary")
	fmt.Println("  curvelab save <dir>                        Save session at <dir> (creates backup)")
	fmt.Println("  curvelab export <dir> <png|svg|pdf> <out>  Render the session's curves to <out>")
	fmt.Println("  curvelab push <dir> <stable-id>            Upload session to the configured backend")
	fmt.Println("  curvelab pull <dir> <stable-id>            Download session from the backend into <dir>")
	fmt.Println("  curvelab sessions                          List sessions archived on the backend")
	fmt.Println("  curvelab serve                             Run the session archive server (Postgres)")
	fmt.Println("  curvelab ui [<dir>]                        Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var h *session.Handle
	defer func() { crash.Recover(h) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("CurveLab — tracking curve editor")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			name := args[3]
			l.Info("init session", slog.String("root", abs), slog.String("name", name))
			created, err := session.Init(abs, name)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = created
			fmt.Println("Created session at", abs)
			return
		case "open":
			h = mustOpen(l, args, 2)
			fmt.Printf("Opened session: %s\n", h.Doc.Name)
			fmt.Printf("Curves: %d\n", len(h.Doc.Curves))
			fmt.Printf("Frame: %d\n", h.Doc.Frame)
			fmt.Println("Root:", h.Root)
			return
		case "save":
			h = mustOpen(l, args, 2)
			// Touch the name to ensure changed content for demo purposes
			if h.Doc.Name == "" {
				h.Doc.Name = fmt.Sprintf("session saved %s", time.Now().Format(time.RFC3339))
			}
			if err := session.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Saved session and created a backup of the previous manifest (if any).")
			return
		case "export":
			if len(args) < 5 {
				fmt.Println("export requires <dir>, a format and <out>")
				usage()
				os.Exit(2)
			}
			h = mustOpen(l, args, 2)
			format, out := args[3], args[4]
			if err := runExport(h, format, out); err != nil {
				l.Error("export failed", slog.String("format", format), slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported", format, "to", out)
			return
		case "push":
			if len(args) < 4 {
				fmt.Println("push requires <dir> and <stable-id>")
				usage()
				os.Exit(2)
			}
			h = mustOpen(l, args, 2)
			cli := backendClient(l)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			res, err := cli.PushSession(ctx, args[3], &h.Doc)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Pushed %s (version %d)\n", res.StableID, res.Version)
			return
		case "pull":
			if len(args) < 4 {
				fmt.Println("pull requires <dir> and <stable-id>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			cli := backendClient(l)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			env, err := cli.FetchSession(ctx, args[3])
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			pulled, err := session.Init(abs, env.Name)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = pulled
			var doc session.Doc
			if err := json.Unmarshal(env.Doc, &doc); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			// Load into a scratch store so a malformed doc is rejected
			// before it overwrites the local manifest.
			if err := session.ApplyToStore(doc, store.New()); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h.Doc = doc
			if err := session.Save(h); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Pulled %s (version %d) into %s\n", env.StableID, env.Version, abs)
			return
		case "sessions":
			cli := backendClient(l)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			list, err := cli.ListSessions(ctx)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			for _, s := range list {
				fmt.Printf("%-24s %-32s v%-4d curves=%-4d %s\n",
					s.StableID, s.Name, s.Version, s.CurveCount, s.UpdatedAt.Format(time.RFC3339))
			}
			return
		case "serve":
			l.Info("starting session archive server")
			if err := backend.Start(); err != nil {
				l.Error("server failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func mustOpen(l *slog.Logger, args []string, pos int) *session.Handle {
	if len(args) <= pos {
		fmt.Println("command requires <dir>")
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[pos])
	l.Info("open session", slog.String("root", abs))
	h, err := session.Open(abs)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return h
}

func backendClient(l *slog.Logger) *backend.Client {
	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}
	return backend.NewClient(cfg.Backend.BaseURL, token)
}

func runExport(h *session.Handle, format, out string) error {
	st := store.New()
	if err := session.ApplyToStore(h.Doc, st); err != nil {
		return err
	}
	st.SetShowAll(true)
	cfg, _, err := config.Load()
	if err != nil {
		cfg = config.Defaults()
	}
	tf := transform.New(transform.DefaultParams(
		float64(cfg.Viewer.ViewportWidth), float64(cfg.Viewer.ViewportHeight)))
	opt := export.Options{
		PointRadius:   cfg.Viewer.PointRadiusPx,
		MarkSelection: true,
		MarkFrame:     true,
		Labels:        true,
	}
	switch format {
	case "png":
		return export.WritePNG(st, tf, out, opt)
	case "svg":
		return export.WriteSVG(st, tf, out, opt)
	case "pdf":
		return export.WritePDF(st, tf, out, opt)
	default:
		return fmt.Errorf("unknown export format %q (want png, svg or pdf)", format)
	}
}
