package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/linkmend/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// UpsertDocument replaces a document row and all of its image references
// within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, refs []models.ImageRef) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM image_refs WHERE document = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear refs: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO image_refs (document, seq, line, alt, path, match, renders) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for i, r := range refs {
			if _, err := stmt.Exec(d.Path, i, r.Line, r.Alt, r.Path, r.Match, r.Renders); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its references.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM image_refs WHERE document = ?`, path); err != nil {
		return fmt.Errorf("index: delete refs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed document path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// References returns the image references of one document in document order.
// The boolean is false when the document is not indexed.
func (db *DB) References(ctx context.Context, document string) (models.DocumentRefs, bool, error) {
	out := models.DocumentRefs{Path: document, Refs: []models.ImageRef{}}
	err := db.conn.QueryRowContext(ctx, `SELECT title FROM documents WHERE path = ?`, document).Scan(&out.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return out, false, nil
	}
	if err != nil {
		return out, false, fmt.Errorf("index: get document: %w", err)
	}
	refs, err := db.queryRefs(ctx, `
		SELECT document, line, alt, path, match, renders
		FROM image_refs WHERE document = ? ORDER BY seq
	`, document)
	if err != nil {
		return out, false, err
	}
	out.Refs = refs
	return out, true, nil
}

// Documents returns every indexed document with its references, ordered by
// path. It lets the index act as a scan source.
func (db *DB) Documents(ctx context.Context) ([]models.DocumentRefs, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, title FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list documents: %w", err)
	}
	var docs []models.DocumentRefs
	pos := make(map[string]int)
	for rows.Next() {
		var d models.DocumentRefs
		if err := rows.Scan(&d.Path, &d.Title); err != nil {
			rows.Close()
			return nil, err
		}
		pos[d.Path] = len(docs)
		docs = append(docs, d)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	refs, err := db.queryRefs(ctx, `
		SELECT document, line, alt, path, match, renders
		FROM image_refs ORDER BY document, seq
	`)
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		if i, ok := pos[r.Document]; ok {
			docs[i].Refs = append(docs[i].Refs, r)
		}
	}
	return docs, nil
}

// Search returns references whose path or alt text contains query.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.ImageRef, error) {
	if limit <= 0 {
		limit = 50
	}
	like := "%" + query + "%"
	return db.queryRefs(ctx, `
		SELECT document, line, alt, path, match, renders
		FROM image_refs
		WHERE path LIKE ? OR alt LIKE ?
		ORDER BY document, seq
		LIMIT ?
	`, like, like, limit)
}

func (db *DB) queryRefs(ctx context.Context, query string, args ...any) ([]models.ImageRef, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query refs: %w", err)
	}
	defer rows.Close()

	out := []models.ImageRef{}
	for rows.Next() {
		var r models.ImageRef
		if err := rows.Scan(&r.Document, &r.Line, &r.Alt, &r.Path, &r.Match, &r.Renders); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
