package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	clock := func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	s, err := Open(filepath.Join(t.TempDir(), "folio.db"), WithClock(clock))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var ignoreTimes = cmpopts.IgnoreFields(Project{}, "ID", "CreatedAt", "UpdatedAt")

func TestCreateAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   Input
		want Project
	}{
		{
			name: "photography",
			in: Input{Title: "Harbour", Category: Photography, Tags: []string{"film", "night"},
				Images: []string{"/uploads/a.jpg", "/uploads/b.jpg"}, Thoughts: "cold", AdditionalInfo: "35mm"},
			want: Project{Title: "Harbour", Category: Photography, Tags: []string{"film", "night"},
				Images: []string{"/uploads/a.jpg", "/uploads/b.jpg"}, Thoughts: "cold", AdditionalInfo: "35mm",
				BilingualTitle: BilingualTitle{Zh: "Harbour", En: "Harbour"}},
		},
		{
			name: "development from image string",
			in: Input{Title: "folio", Category: Development, Image: "/uploads/x.png, /uploads/y.png",
				GithubURL: "https://github.com/bamdow/folio", Readme: "# folio"},
			want: Project{Title: "folio", Category: Development, Images: []string{"/uploads/x.png", "/uploads/y.png"},
				GithubURL: "https://github.com/bamdow/folio", Readme: "# folio",
				BilingualTitle: BilingualTitle{Zh: "folio", En: "folio"}},
		},
		{
			name: "other",
			in:   Input{Title: "Zine", Category: Other, ExternalLink: "https://example.org", Introduction: "paper"},
			want: Project{Title: "Zine", Category: Other, ExternalLink: "https://example.org", Introduction: "paper",
				BilingualTitle: BilingualTitle{Zh: "Zine", En: "Zine"}},
		},
		{
			name: "article has no detail table",
			in:   Input{Title: "Notes", Category: Article, Description: "words"},
			want: Project{Title: "Notes", Category: Article, Description: "words",
				BilingualTitle: BilingualTitle{Zh: "Notes", En: "Notes"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := s.Create(ctx, tt.in)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if created.ID == "" {
				t.Fatal("expected generated id")
			}
			got, err := s.Get(ctx, created.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(tt.want, *got, ignoreTimes, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("project mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCreateInvalid(t *testing.T) {
	s := newStore(t)
	for _, in := range []Input{
		{Title: "", Category: Other},
		{Title: "x", Category: "Music"},
	} {
		if _, err := s.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
			t.Errorf("%+v: expected ErrInvalid, got %v", in, err)
		}
	}
}

func TestGetMissing(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPaging(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cat := Photography
		if i%2 == 1 {
			cat = Development
		}
		if _, err := s.Create(ctx, Input{Title: string(rune('a' + i)), Category: cat, Images: []string{"/uploads/p.jpg"}}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name   string
		q      ListQuery
		total  int64
		titles []string
	}{
		{"defaults", ListQuery{}, 5, []string{"e", "d", "c", "b", "a"}},
		{"first page", ListQuery{Page: 1, Size: 2}, 5, []string{"e", "d"}},
		{"last page", ListQuery{Page: 3, Size: 2}, 5, []string{"a"}},
		{"past end", ListQuery{Page: 9, Size: 2}, 5, []string{}},
		{"category", ListQuery{Category: Development}, 2, []string{"d", "b"}},
		{"all", ListQuery{Category: All, Size: 1}, 5, []string{"e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.List(ctx, tt.q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if res.Total != tt.total {
				t.Errorf("expected total %d, got %d", tt.total, res.Total)
			}
			titles := []string{}
			for _, p := range res.Items {
				titles = append(titles, p.Title)
				if len(p.Images) != 1 {
					t.Errorf("%s: expected 1 image, got %v", p.Title, p.Images)
				}
			}
			if diff := cmp.Diff(tt.titles, titles); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, Input{Title: "draft", Category: Photography, Images: []string{"/a", "/b"}, Thoughts: "t"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Update(ctx, p.ID, Input{Title: "final", Category: Development, Image: "/c", Readme: "r", Tags: []string{"go"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "final" || got.Category != Development || got.Readme != "r" || got.Thoughts != "" {
		t.Errorf("unexpected project after update: %+v", got)
	}
	if diff := cmp.Diff([]string{"/c"}, got.Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("expected updated_at after created_at, got %v <= %v", got.UpdatedAt, got.CreatedAt)
	}

	if _, err := s.Update(ctx, "missing", Input{Title: "x", Category: Other}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBatch(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, Input{Title: "a", Category: Photography, Images: []string{"/a"}})
	b, _ := s.Create(ctx, Input{Title: "b", Category: Other})
	c, _ := s.Create(ctx, Input{Title: "c", Category: Development})

	if err := s.Delete(ctx, a.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, a.ID); err != nil {
		t.Errorf("expected failed batch to roll back, got %v", err)
	}

	if err := s.Delete(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	res, err := s.List(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 1 || res.Items[0].ID != c.ID {
		t.Errorf("expected only %s left, got %+v", c.ID, res)
	}

	var orphans int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM project_images`).Scan(&orphans); err != nil {
		t.Fatalf("count images: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected images removed with their project, got %d", orphans)
	}
}
