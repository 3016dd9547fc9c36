/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerWritesAttrs(t *testing.T) {
	var sb strings.Builder
	h := &consoleHandler{level: slog.LevelDebug, w: &sb}
	l := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "store")}))
	l.Info("curve added", slog.String("curve", "Track1"), slog.Int("points", 3))
	out := sb.String()
	for _, want := range []string{"INF", "curve added", "component=store", "curve=Track1", "points=3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %s", want, out)
		}
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	var sb strings.Builder
	h := &consoleHandler{level: slog.LevelInfo, w: &sb}
	l := slog.New(h.WithGroup("view"))
	l.Info("zoom", slog.Float64("factor", 2))
	if !strings.Contains(sb.String(), "view.factor=2") {
		t.Fatalf("group prefix missing: %s", sb.String())
	}
}

func TestConsoleHandlerLevelGate(t *testing.T) {
	var sb strings.Builder
	h := &consoleHandler{level: slog.LevelWarn, w: &sb}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}
}

func TestInitAndL(t *testing.T) {
	Init(Options{Level: "debug", Format: "console"})
	if L() == nil {
		t.Fatalf("L() returned nil after Init")
	}
	if WithComponent("test") == nil {
		t.Fatalf("WithComponent returned nil")
	}
}
