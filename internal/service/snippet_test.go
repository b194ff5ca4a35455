package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sakif/code-snippets/internal/apperror"
	"github.com/sakif/code-snippets/internal/model"
)

// mockSnippetRepo is an in-memory SnippetRepository with the same
// owner-filtered contract as the sqlite implementation.
type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
	now      time.Time
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{
		snippets: make(map[string]*model.Snippet),
		now:      time.Now(),
	}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("snip-%d", m.nextID)
	// Monotonic timestamps so newest-first ordering is deterministic.
	m.now = m.now.Add(time.Second)
	snippet.CreatedAt = m.now
	snippet.UpdatedAt = m.now
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetOwned(_ context.Context, id, ownerID string) (*model.Snippet, error) {
	s, ok := m.snippets[id]
	if !ok || s.UserID != ownerID {
		return nil, apperror.NotFoundOrForbidden()
	}
	result := *s
	return &result, nil
}

func (m *mockSnippetRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Snippet, error) {
	return m.list(func(s *model.Snippet) bool { return s.UserID == ownerID }), nil
}

func (m *mockSnippetRepo) ListPublic(_ context.Context) ([]model.Snippet, error) {
	return m.list(func(s *model.Snippet) bool { return s.IsPublic }), nil
}

func (m *mockSnippetRepo) ListPublicByOwner(_ context.Context, ownerID string) ([]model.Snippet, error) {
	return m.list(func(s *model.Snippet) bool { return s.UserID == ownerID && s.IsPublic }), nil
}

func (m *mockSnippetRepo) ListVisible(_ context.Context, ownerID string) ([]model.Snippet, error) {
	owned := m.list(func(s *model.Snippet) bool { return s.UserID == ownerID })
	public := m.list(func(s *model.Snippet) bool { return s.IsPublic && s.UserID != ownerID })
	return append(owned, public...), nil
}

func (m *mockSnippetRepo) UpdateOwned(_ context.Context, id, ownerID string, patch model.SnippetPatch) error {
	existing, ok := m.snippets[id]
	if !ok || existing.UserID != ownerID {
		return apperror.NotFoundOrForbidden()
	}
	if patch.Title != nil {
		existing.Title = *patch.Title
	}
	if patch.Code != nil {
		existing.Code = *patch.Code
	}
	if patch.Language != nil {
		existing.Language = *patch.Language
	}
	if patch.Tags != nil {
		existing.Tags = *patch.Tags
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.IsPublic != nil {
		existing.IsPublic = *patch.IsPublic
	}
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *mockSnippetRepo) DeleteOwned(_ context.Context, id, ownerID string) error {
	s, ok := m.snippets[id]
	if !ok || s.UserID != ownerID {
		return apperror.NotFoundOrForbidden()
	}
	delete(m.snippets, id)
	return nil
}

func (m *mockSnippetRepo) list(keep func(*model.Snippet) bool) []model.Snippet {
	out := []model.Snippet{}
	for _, s := range m.snippets {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func newTestSnippetService(t *testing.T) (*SnippetService, *mockSnippetRepo) {
	t.Helper()
	repo := newMockSnippetRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSnippetService(repo, logger), repo
}

func validInput() SnippetInput {
	return SnippetInput{
		Title:       "t",
		Code:        "console.log(1)",
		Language:    "js",
		Tags:        []string{"a", "b"},
		Description: "d",
	}
}

func TestSnippetCreate_OwnerIsForced(t *testing.T) {
	svc, repo := newTestSnippetService(t)

	snippet, err := svc.Create(context.Background(), "alice-id", validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.UserID != "alice-id" {
		t.Errorf("UserID = %q, want the requester's ID", snippet.UserID)
	}
	if snippet.IsPublic {
		t.Error("IsPublic should default to false")
	}
	if repo.snippets[snippet.ID].UserID != "alice-id" {
		t.Error("stored snippet does not carry the requester as owner")
	}
}

func TestSnippetCreate_RequiresAuthenticatedOwner(t *testing.T) {
	svc, _ := newTestSnippetService(t)

	_, err := svc.Create(context.Background(), "", validInput())
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("Create() without owner error = %v, want ErrUnauthenticated", err)
	}
}

func TestSnippetCreate_Validation(t *testing.T) {
	svc, _ := newTestSnippetService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*SnippetInput)
	}{
		{"empty title", func(in *SnippetInput) { in.Title = "" }},
		{"whitespace title", func(in *SnippetInput) { in.Title = "   " }},
		{"title too long", func(in *SnippetInput) { in.Title = strings.Repeat("x", MaxTitleLength+1) }},
		{"code too long", func(in *SnippetInput) { in.Code = strings.Repeat("x", MaxCodeLength+1) }},
		{"empty tag", func(in *SnippetInput) { in.Tags = []string{"ok", " "} }},
		{"too many tags", func(in *SnippetInput) {
			in.Tags = make([]string, MaxTags+1)
			for i := range in.Tags {
				in.Tags[i] = "t"
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.Create(ctx, "alice-id", in); !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSnippetCreate_TagOrderPreserved(t *testing.T) {
	svc, _ := newTestSnippetService(t)

	in := validInput()
	in.Tags = []string{"zebra", "apple", "mango"}

	snippet, err := svc.Create(context.Background(), "alice-id", in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	want := []string{"zebra", "apple", "mango"}
	for i, tag := range want {
		if snippet.Tags[i] != tag {
			t.Fatalf("Tags = %v, want %v (order preserved)", snippet.Tags, want)
		}
	}
}

func TestSnippetGetByID_NonOwnerGetsCollapsedError(t *testing.T) {
	svc, _ := newTestSnippetService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice-id", validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, errNonOwner := svc.GetByID(ctx, "bob-id", created.ID)
	_, errMissing := svc.GetByID(ctx, "bob-id", "no-such-id")

	if !errors.Is(errNonOwner, apperror.ErrNotFoundOrForbidden) {
		t.Fatalf("GetByID() by non-owner error = %v, want ErrNotFoundOrForbidden", errNonOwner)
	}
	if errNonOwner.Error() != errMissing.Error() {
		t.Error("non-owner and missing-ID errors must be identical")
	}
}

func TestSnippetUpdate_NonOwner(t *testing.T) {
	svc, repo := newTestSnippetService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice-id", validInput())

	title := "hijacked"
	_, err := svc.Update(ctx, "bob-id", created.ID, model.SnippetPatch{Title: &title})
	if !errors.Is(err, apperror.ErrNotFoundOrForbidden) {
		t.Fatalf("Update() by non-owner error = %v, want ErrNotFoundOrForbidden", err)
	}

	if repo.snippets[created.ID].Title != "t" {
		t.Error("non-owner update must leave the snippet unchanged")
	}
}

func TestSnippetUpdate_Owner(t *testing.T) {
	svc, _ := newTestSnippetService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice-id", validInput())

	title := "renamed"
	isPublic := true
	updated, err := svc.Update(ctx, "alice-id", created.ID, model.SnippetPatch{
		Title:    &title,
		IsPublic: &isPublic,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "renamed" || !updated.IsPublic {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.UserID != "alice-id" {
		t.Error("owner must not change on update")
	}
}

// Updates merge: fields the patch leaves out keep their stored values.
func TestSnippetUpdate_OmittedFieldsSurvive(t *testing.T) {
	svc, _ := newTestSnippetService(t)
	ctx := context.Background()

	in := validInput()
	in.Language = "go"
	in.Tags = []string{"a", "b"}
	in.IsPublic = true
	created, err := svc.Create(ctx, "alice-id", in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	title := "renamed"
	code := "print(2)"
	updated, err := svc.Update(ctx, "alice-id", created.ID, model.SnippetPatch{
		Title: &title,
		Code:  &code,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "renamed" || updated.Code != "print(2)" {
		t.Errorf("patched fields not applied: %+v", updated)
	}
	if updated.Language != "go" {
		t.Errorf("Language = %q, omitted field must keep its value", updated.Language)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "a" || updated.Tags[1] != "b" {
		t.Errorf("Tags = %v, omitted field must keep its value", updated.Tags)
	}
	if !updated.IsPublic {
		t.Error("IsPublic flipped to false by a patch that never mentioned it")
	}
}

func TestSnippetUpdate_EmptyPatchIsReadOnly(t *testing.T) {
	svc, repo := newTestSnippetService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice-id", validInput())
	before := *repo.snippets[created.ID]

	got, err := svc.Update(ctx, "alice-id", created.ID, model.SnippetPatch{})
	if err != nil {
		t.Fatalf("Update() with empty patch error = %v", err)
	}
	if got.Title != before.Title {
		t.Errorf("Title = %q, want %q", got.Title, before.Title)
	}
	if !repo.snippets[created.ID].UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("empty patch must not write anything")
	}
}

func TestSnippetUpdate_PatchValidation(t *testing.T) {
	svc, _ := newTestSnippetService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice-id", validInput())

	empty := "   "
	_, err := svc.Update(ctx, "alice-id", created.ID, model.SnippetPatch{Title: &empty})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() with blank title error = %v, want ErrValidation", err)
	}

	long := strings.Repeat("x", MaxTitleLength+1)
	_, err = svc.Update(ctx, "alice-id", created.ID, model.SnippetPatch{Title: &long})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() with oversized title error = %v, want ErrValidation", err)
	}

	badTags := []string{"ok", " "}
	_, err = svc.Update(ctx, "alice-id", created.ID, model.SnippetPatch{Tags: &badTags})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() with empty tag error = %v, want ErrValidation", err)
	}
}

func TestSnippetDelete_NonOwner(t *testing.T) {
	svc, repo := newTestSnippetService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice-id", validInput())

	err := svc.Delete(ctx, "bob-id", created.ID)
	if !errors.Is(err, apperror.ErrNotFoundOrForbidden) {
		t.Fatalf("Delete() by non-owner error = %v, want ErrNotFoundOrForbidden", err)
	}
	if _, ok := repo.snippets[created.ID]; !ok {
		t.Error("non-owner delete must leave the snippet in place")
	}
}

func TestSnippetListVisible_DedupAcrossGroups(t *testing.T) {
	svc, _ := newTestSnippetService(t)
	ctx := context.Background()

	in := validInput()
	in.IsPublic = true
	shared, _ := svc.Create(ctx, "alice-id", in)

	visible, err := svc.ListVisible(ctx, "alice-id")
	if err != nil {
		t.Fatalf("ListVisible() error = %v", err)
	}

	count := 0
	for _, s := range visible {
		if s.ID == shared.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("own public snippet appears %d times in ListVisible, want exactly 1", count)
	}
}
