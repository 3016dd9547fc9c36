/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"curvelab/internal/curve"
	"curvelab/internal/store"
)

const (
	ManifestFileName = "session.json"
	BackupsDirName   = "backups"

	// DocVersion bumps on backward-incompatible manifest changes.
	DocVersion = 1
)

// Doc is the serialized form of a session: every piece of store state the
// editor needs to resume where it left off.
type Doc struct {
	SessionVersion   int              `json:"session_version"`
	Name             string           `json:"name"`
	Curves           []curve.Curve    `json:"curves"`
	Selections       map[string][]int `json:"selections,omitempty"`
	ActiveCurve      string           `json:"active_curve,omitempty"`
	Frame            int              `json:"frame"`
	ShowAll          bool             `json:"show_all"`
	DisplaySelection []string         `json:"display_selection,omitempty"`
}

// Handle tracks a session directory and its in-memory manifest.
type Handle struct {
	Root         string
	ManifestPath string
	Doc          Doc
}

// Init creates a session directory at root and writes the initial
// manifest transactionally.
func Init(root, name string) (*Handle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("session root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create session root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create backups dir: %w", err)
	}
	h := &Handle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Doc:          Doc{SessionVersion: DocVersion, Name: name, Curves: []curve.Curve{}},
	}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads a session from root, validating the manifest against the
// embedded schema. If the manifest is unreadable, unparsable or invalid,
// it falls back to the latest backup.
func Open(root string) (*Handle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	doc, err := readManifest(mpath)
	if err != nil {
		bdoc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		doc = bdoc
	}
	return &Handle{Root: root, ManifestPath: mpath, Doc: *doc}, nil
}

func readManifest(path string) (*Doc, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateManifest(b); err != nil {
		return nil, err
	}
	var d Doc
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &d, nil
}

// Save writes the manifest with transactional semantics: the previous
// manifest (if any) is kept as a timestamped backup, the new one is
// written to a temp file and renamed into place.
func Save(h *Handle) error {
	if h == nil {
		return errors.New("nil session handle")
	}
	if h.Root == "" || h.ManifestPath == "" {
		return errors.New("invalid session handle: missing paths")
	}
	data, err := json.MarshalIndent(h.Doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("create backups dir: %w", err)
	}
	if prev, err := os.ReadFile(h.ManifestPath); err == nil {
		stamp := time.Now().Format("20060102-150405.000000000")
		bpath := filepath.Join(bdir, fmt.Sprintf("session-%s.json", stamp))
		if err := os.WriteFile(bpath, prev, 0o644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	}

	tmp := h.ManifestPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest temp: %w", err)
	}
	if err := os.Rename(tmp, h.ManifestPath); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

func openFromLatestBackup(root string) (*Doc, error) {
	bdir := filepath.Join(root, BackupsDirName)
	entries, err := os.ReadDir(bdir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "session-") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(names)
	// newest last thanks to the sortable timestamp format
	return readManifest(filepath.Join(bdir, names[len(names)-1]))
}

// FromStore captures the store state as a Doc via the query API only.
func FromStore(st *store.CurveStore, name string) Doc {
	doc := Doc{SessionVersion: DocVersion, Name: name, Frame: st.Frame(), ShowAll: st.ShowAll()}
	for _, n := range st.CurveNames() {
		doc.Curves = append(doc.Curves, curve.Curve{Name: n, Points: st.CurveData(n)})
		if sel := st.Selection(n); len(sel) > 0 {
			if doc.Selections == nil {
				doc.Selections = make(map[string][]int)
			}
			doc.Selections[n] = sel
		}
	}
	if active, ok := st.ActiveCurve(); ok {
		doc.ActiveCurve = active
	}
	if ds := st.DisplaySelection(); len(ds) > 0 {
		doc.DisplaySelection = ds
	}
	return doc
}

// ApplyToStore loads a Doc into the store in one batch, so observers see
// a single coalesced notification per signal type.
func ApplyToStore(doc Doc, st *store.CurveStore) error {
	var err error
	st.Batch(func() {
		for _, n := range st.CurveNames() {
			st.RemoveCurve(n)
		}
		for _, c := range doc.Curves {
			if err = st.SetCurveData(c.Name, c.Points); err != nil {
				return
			}
		}
		for n, sel := range doc.Selections {
			st.SetSelection(n, sel)
		}
		if doc.ActiveCurve != "" {
			st.SetActiveCurve(doc.ActiveCurve)
		} else {
			st.ClearActiveCurve()
		}
		st.SetFrame(doc.Frame)
		st.SetShowAll(doc.ShowAll)
		st.SetDisplaySelection(doc.DisplaySelection)
	})
	return err
}
