package model

import "time"

// Snippet represents a saved code snippet owned by exactly one user.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize
// this struct to/from JSON. For example:
//
//	snippet := Snippet{ID: "abc", Title: "hello"}
//	json.Marshal(snippet) → {"id":"abc","title":"hello",...}
//
// OWNERSHIP:
// UserID is set by the server from the authenticated request and is
// immutable after creation — ownership never transfers. There is no
// userID field in the create/update request schemas, so a client cannot
// even attempt to supply one.
//
// Tags is an ORDERED list — the database stores it as a JSON text column
// so the order the user typed them in survives a round trip.
type Snippet struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SnippetPatch is a partial update: nil means "leave this field alone",
// non-nil means "set it to this value". Updates merge — a body that only
// sends a new title must not blank the language or flip visibility.
//
// Pointers are how field presence survives JSON decoding: an omitted key
// and a zero value are different things, and only a pointer can tell them
// apart after Unmarshal.
type SnippetPatch struct {
	Title       *string
	Code        *string
	Language    *string
	Tags        *[]string
	Description *string
	IsPublic    *bool
}

// IsEmpty reports whether the patch sets no fields at all.
func (p SnippetPatch) IsEmpty() bool {
	return p.Title == nil && p.Code == nil && p.Language == nil &&
		p.Tags == nil && p.Description == nil && p.IsPublic == nil
}
