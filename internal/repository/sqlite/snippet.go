package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/code-snippets/internal/apperror"
	"github.com/sakif/code-snippets/internal/model"
	"github.com/sakif/code-snippets/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, user_id, title, code, language, tags, description, is_public, created_at, updated_at`

// Create inserts a new snippet. The repository fills in the ID (xid:
// 20 chars, URL-safe, sortable by creation time) and timestamps; the
// caller has already set UserID to the authenticated requester.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.UserID,
		snippet.Title,
		snippet.Code,
		snippet.Language,
		tags,
		snippet.Description,
		snippet.IsPublic,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetOwned retrieves a snippet by ID, but only when ownerID matches.
//
// The combined `id = ? AND user_id = ?` filter means a wrong ID and a
// right ID with the wrong owner are the same zero-row outcome — the
// caller gets one collapsed "not found" and can't probe for existence.
func (db *DB) GetOwned(ctx context.Context, id, ownerID string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)

	snippet, err := scanSnippetRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundOrForbidden()
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return snippet, nil
}

// ListByOwner returns all snippets owned by ownerID, newest first.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	return db.listSnippets(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		ownerID,
	)
}

// ListPublic returns every public snippet regardless of owner, newest first.
func (db *DB) ListPublic(ctx context.Context) ([]model.Snippet, error) {
	return db.listSnippets(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE is_public = 1
		 ORDER BY created_at DESC`,
	)
}

// ListPublicByOwner returns ownerID's public snippets, newest first.
func (db *DB) ListPublicByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	return db.listSnippets(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE user_id = ? AND is_public = 1
		 ORDER BY created_at DESC`,
		ownerID,
	)
}

// ListVisible returns everything ownerID may see on the dashboard:
// their own snippets followed by public snippets from other users.
//
// ONE QUERY, NOT TWO:
// The union is computed server-side as a single statement. The `grp`
// column pins owned snippets (0) ahead of public ones (1), and the
// `user_id != ?` guard in the second branch de-duplicates — a public
// snippet the requester owns appears exactly once, in the owned group.
func (db *DB) ListVisible(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	return db.listSnippets(ctx,
		`SELECT `+snippetColumns+` FROM (
			SELECT `+snippetColumns+`, 0 AS grp
			FROM snippets
			WHERE user_id = ?
			UNION ALL
			SELECT `+snippetColumns+`, 1 AS grp
			FROM snippets
			WHERE is_public = 1 AND user_id != ?
		 )
		 ORDER BY grp ASC, created_at DESC`,
		ownerID, ownerID,
	)
}

// UpdateOwned applies a partial update in a single statement filtered on
// id AND user_id. Only the fields the patch actually sets appear in the
// SET clause — an omitted field keeps its stored value, which is the
// merge contract clients rely on (sending a new title must not blank the
// language or flip visibility).
//
// ATOMIC OWNERSHIP CHECK:
// There is no separate "does it exist / is it theirs" query. The WHERE
// clause IS the ownership check, and RowsAffected tells us whether it
// passed — so two concurrent mutations of the same row can't interleave
// between a check and a write. Owner and created_at are never in the SET
// list; they are immutable.
func (db *DB) UpdateOwned(ctx context.Context, id, ownerID string, patch model.SnippetPatch) error {
	set := []string{"updated_at = ?"}
	args := []any{time.Now()}

	if patch.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Code != nil {
		set = append(set, "code = ?")
		args = append(args, *patch.Code)
	}
	if patch.Language != nil {
		set = append(set, "language = ?")
		args = append(args, *patch.Language)
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return err
		}
		set = append(set, "tags = ?")
		args = append(args, tags)
	}
	if patch.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.IsPublic != nil {
		set = append(set, "is_public = ?")
		args = append(args, *patch.IsPublic)
	}

	args = append(args, id, ownerID)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFoundOrForbidden()
	}

	return nil
}

// DeleteOwned removes a snippet, matching on id AND ownerID. Same
// RowsAffected pattern as UpdateOwned.
func (db *DB) DeleteOwned(ctx context.Context, id, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFoundOrForbidden()
	}

	return nil
}

// listSnippets runs a multi-row snippet query and scans the results.
func (db *DB) listSnippets(ctx context.Context, query string, args ...any) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippetRow(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSnippetRow reads one row in snippetColumns order and decodes the
// tags JSON back into an ordered slice.
func scanSnippetRow(row rowScanner) (*model.Snippet, error) {
	var s model.Snippet
	var tags string

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Title,
		&s.Code,
		&s.Language,
		&tags,
		&s.Description,
		&s.IsPublic,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for snippet %s: %w", s.ID, err)
	}

	return &s, nil
}

// encodeTags serializes the ordered tag list for the TEXT column.
// nil becomes "[]" so the column is never NULL and clients always get an
// array back, not null.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	out, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	return string(out), nil
}
