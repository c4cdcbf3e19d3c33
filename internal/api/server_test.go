package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bamdow/folio/internal/project"
	"github.com/bamdow/folio/internal/storage"
)

type testEnv struct {
	srv    *httptest.Server
	store  *project.Store
	images *storage.Images
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := project.Open(filepath.Join(dir, "folio.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	images := storage.New(filepath.Join(dir, "uploads"), "/uploads")
	if err := images.Init(); err != nil {
		t.Fatalf("init images: %v", err)
	}
	srv := httptest.NewServer(New(store, images).Handler())
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return &testEnv{srv: srv, store: store, images: images}
}

type response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body io.Reader) (int, response) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	var env response
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return res.StatusCode, env
}

func (e *testEnv) create(t *testing.T, body string) project.Project {
	t.Helper()
	code, env := e.do(t, "POST", "/api/admin/projects", "application/json", strings.NewReader(body))
	if code != 200 || env.Code != 200 {
		t.Fatalf("create: %d %+v", code, env)
	}
	var p project.Project
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	return p
}

func TestCreateGetSanitises(t *testing.T) {
	e := newEnv(t)

	p := e.create(t, `{"title":"folio","category":"Development","tags":["go","physics"],
		"images":["/uploads/a.png"],"readme":"<script>alert(1)</script><b>bold</b>","githubUrl":"https://github.com/bamdow/folio"}`)

	code, env := e.do(t, "GET", "/api/admin/projects/"+p.ID, "", nil)
	if code != 200 || env.Message != "success" {
		t.Fatalf("get: %d %+v", code, env)
	}
	var got project.Project
	json.Unmarshal(env.Data, &got)

	if got.Readme != "<b>bold</b>" {
		t.Errorf("expected sanitised readme, got %q", got.Readme)
	}
	if got.GithubURL != "https://github.com/bamdow/folio" || len(got.Tags) != 2 || got.BilingualTitle.En != "folio" {
		t.Errorf("unexpected project %+v", got)
	}
}

func TestCreateKeepsPlainText(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name  string
		input map[string]string
		field func(project.Project) string
		want  string
	}{
		{"apostrophe and ampersand",
			map[string]string{"category": "Development", "description": "Tom's app & tools"},
			func(p project.Project) string { return p.Description }, "Tom's app & tools"},
		{"markdown code span",
			map[string]string{"category": "Development", "readme": "Run `a && b` if x > 1 and y < 2"},
			func(p project.Project) string { return p.Readme }, "Run `a && b` if x > 1 and y < 2"},
		{"encoded tag",
			map[string]string{"category": "Other", "introduction": "&lt;script&gt;alert(1)&lt;/script&gt;kept"},
			func(p project.Project) string { return p.Introduction }, "kept"},
		{"allowed markup",
			map[string]string{"category": "Photography", "thoughts": `<em>fine</em> "quoted"`},
			func(p project.Project) string { return p.Thoughts }, `<em>fine</em> "quoted"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input["title"] = "folio"
			body, _ := json.Marshal(tt.input)
			p := e.create(t, string(body))

			code, env := e.do(t, "GET", "/api/admin/projects/"+p.ID, "", nil)
			if code != 200 {
				t.Fatalf("get: %d %+v", code, env)
			}
			var got project.Project
			json.Unmarshal(env.Data, &got)
			if field := tt.field(got); field != tt.want {
				t.Errorf("expected %q, got %q", tt.want, field)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"missing project", "GET", "/api/admin/projects/nope", "", 404},
		{"bad json", "POST", "/api/admin/projects", "{", 400},
		{"invalid category", "POST", "/api/admin/projects", `{"title":"x","category":"Music"}`, 400},
		{"bad page", "GET", "/api/admin/projects?page=two", "", 400},
		{"bad filter", "GET", "/api/admin/projects?category=Music", "", 400},
		{"batch without ids", "DELETE", "/api/admin/projects", "", 400},
		{"update missing", "PUT", "/api/admin/projects/nope", `{"title":"x","category":"Other"}`, 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			code, env := e.do(t, tt.method, tt.path, "application/json", body)
			if code != tt.want || env.Code != tt.want {
				t.Errorf("expected %d, got http %d envelope %d (%s)", tt.want, code, env.Code, env.Message)
			}
			if env.Message == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestListUpdateDelete(t *testing.T) {
	e := newEnv(t)

	a := e.create(t, `{"title":"a","category":"Photography","thoughts":"quiet"}`)
	b := e.create(t, `{"title":"b","category":"Other"}`)
	c := e.create(t, `{"title":"c","category":"Photography"}`)

	code, env := e.do(t, "GET", "/api/admin/projects?category=Photography&size=1", "", nil)
	if code != 200 {
		t.Fatalf("list: %d %+v", code, env)
	}
	var page project.PageResult
	json.Unmarshal(env.Data, &page)
	if page.Total != 2 || len(page.Items) != 1 {
		t.Errorf("expected 1 of 2 photography projects, got %+v", page)
	}

	code, env = e.do(t, "PUT", "/api/admin/projects/"+a.ID, "application/json",
		strings.NewReader(`{"title":"a2","category":"Photography","image":"/uploads/1.jpg,/uploads/2.jpg"}`))
	if code != 200 {
		t.Fatalf("update: %d %+v", code, env)
	}
	var updated project.Project
	json.Unmarshal(env.Data, &updated)
	if updated.Title != "a2" || len(updated.Images) != 2 {
		t.Errorf("unexpected update result %+v", updated)
	}

	if code, env = e.do(t, "DELETE", "/api/admin/projects/"+b.ID, "", nil); code != 200 {
		t.Fatalf("delete: %d %+v", code, env)
	}
	if code, env = e.do(t, "DELETE", "/api/admin/projects?ids="+a.ID+","+c.ID, "", nil); code != 200 {
		t.Fatalf("batch delete: %d %+v", code, env)
	}

	_, env = e.do(t, "GET", "/api/admin/projects", "", nil)
	json.Unmarshal(env.Data, &page)
	if page.Total != 0 || len(page.Items) != 0 {
		t.Errorf("expected empty gallery, got %+v", page)
	}
}

func TestUploadImages(t *testing.T) {
	e := newEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("files", "cover.PNG")
	fw.Write([]byte("png bytes"))
	mw.CreateFormFile("files", "empty.png")
	fw, _ = mw.CreateFormFile("files", "notes.txt")
	fw.Write([]byte("text"))
	mw.Close()

	code, env := e.do(t, "POST", "/api/admin/upload/images", mw.FormDataContentType(), &buf)
	if code != 200 {
		t.Fatalf("upload: %d %+v", code, env)
	}
	var urls []string
	json.Unmarshal(env.Data, &urls)
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls with the empty file skipped, got %v", urls)
	}
	if !strings.HasPrefix(urls[0], "/uploads/") || !strings.HasSuffix(urls[0], ".png") {
		t.Errorf("unexpected url %q", urls[0])
	}

	res, err := http.Get(e.srv.URL + urls[0])
	if err != nil {
		t.Fatalf("fetch upload: %v", err)
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	if res.StatusCode != 200 || string(data) != "png bytes" {
		t.Errorf("expected stored bytes, got %d %q", res.StatusCode, data)
	}
}
