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
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot kinds kept in the session index.
const (
	SnapshotAutosave = "autosave"
	SnapshotCrash    = "crash"
)

// language=SQL
const insertSnapshotSQL = `INSERT INTO snapshots(kind, ts, doc_blob) VALUES (?, ?, ?)`

// language=SQL
const selectLatestSnapshotSQL = `SELECT ts, doc_blob FROM snapshots WHERE kind = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
const pruneSnapshotsSQL = `DELETE FROM snapshots WHERE kind = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE kind = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// SaveSnapshot persists a serialized session Doc into the index.
func SaveSnapshot(ctx context.Context, h *Handle, kind string, blob []byte, ts time.Time) error {
	if h == nil {
		return errors.New("nil session handle")
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, kind, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// LatestSnapshot returns the newest snapshot blob of the given kind, or
// nil when none exists.
func LatestSnapshot(ctx context.Context, h *Handle, kind string) ([]byte, time.Time, error) {
	if h == nil {
		return nil, time.Time{}, errors.New("nil session handle")
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, kind).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, perr := time.Parse(time.RFC3339Nano, tsStr)
	if perr != nil {
		return blob, time.Time{}, nil
	}
	return blob, ts, nil
}

// PruneSnapshots keeps the newest keep snapshots of the given kind and
// deletes the rest.
func PruneSnapshots(ctx context.Context, h *Handle, kind string, keep int) error {
	if h == nil {
		return errors.New("nil session handle")
	}
	if keep < 0 {
		keep = 0
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, pruneSnapshotsSQL, kind, kind, keep)
	return err
}

// AutosaveCrashSnapshot writes the in-memory Doc both to the snapshot
// index (kind "crash") and to a plain JSON file under backups, so a
// recovery has two chances to find it. Returns the file path.
func AutosaveCrashSnapshot(h *Handle) (string, error) {
	if h == nil {
		return "", errors.New("nil session handle")
	}
	blob, err := json.MarshalIndent(h.Doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	// best effort; the plain file below is the fallback
	_ = SaveSnapshot(ctx, h, SnapshotCrash, blob, time.Now())

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("create backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("crash-autosave-%s.json", stamp))
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
