/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CurveQuery filters the cross-session curve search.
type CurveQuery struct {
	Text      string // full-text over curve names
	Session   string // restrict to one session stable id
	FrameFrom int    // curves whose frame span overlaps [FrameFrom, FrameTo]
	FrameTo   int
	MinPoints int
	Limit     int
	Offset    int
}

// CurveHit is one curve summary matched by SearchCurvesPG.
type CurveHit struct {
	SessionStableID string
	SessionName     string
	Curve           string
	PointCount      int
	FrameFrom       int
	FrameTo         int
}

// SearchCurvesPG searches curve summaries across archived sessions using the
// tsvector column maintained by pushSession.
func SearchCurvesPG(ctx context.Context, db *sql.DB, q CurveQuery) ([]CurveHit, error) {
	var (
		args []any
		b    strings.Builder
	)
	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString("SELECT s.stable_id, s.name, c.name, c.point_count, c.frame_from, c.frame_to ")
	b.WriteString("FROM curves c JOIN sessions s ON s.id = c.session_id WHERE 1=1 ")

	if t := strings.TrimSpace(q.Text); t != "" {
		b.WriteString(" AND c.search_vector @@ plainto_tsquery('simple', " + place(t) + ") ")
	}
	if s := strings.TrimSpace(q.Session); s != "" {
		b.WriteString(" AND s.stable_id = " + place(s) + " ")
	}
	// Frame span overlap
	if q.FrameFrom != 0 || q.FrameTo != 0 {
		from, to := q.FrameFrom, q.FrameTo
		if to < from {
			from, to = to, from
		}
		b.WriteString(" AND c.frame_to >= " + place(from) + " AND c.frame_from <= " + place(to) + " ")
	}
	if q.MinPoints > 0 {
		b.WriteString(" AND c.point_count >= " + place(q.MinPoints) + " ")
	}

	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY s.updated_at DESC, c.name ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []CurveHit
	for rows.Next() {
		var h CurveHit
		if err := rows.Scan(&h.SessionStableID, &h.SessionName, &h.Curve, &h.PointCount, &h.FrameFrom, &h.FrameTo); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
