package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nhle/todo-client/internal/api"
	"github.com/nhle/todo-client/internal/model"
)

// staticToken is a TokenSource whose value can be rotated between calls.
type staticToken struct {
	value string
}

func (s *staticToken) Token() string { return s.value }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newClient(t *testing.T, handler http.HandlerFunc, tokens api.TokenSource, opts api.Options) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.Logger = discard
	return api.NewClient(srv.URL+"/api/", tokens, opts)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_HeadersOnEveryMethod(t *testing.T) {
	tokens := &staticToken{value: "tok-1"}

	var got []http.Header
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Clone())
		writeJSON(w, http.StatusOK, `{}`)
	}, tokens, api.Options{})

	ctx := context.Background()
	c.Get(ctx, "todos")
	c.Post(ctx, "addTodo", map[string]any{"a": 1})
	c.Put(ctx, "todos/1", map[string]any{"b": 2})
	c.Delete(ctx, "todos/1")

	if len(got) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(got))
	}
	for i, h := range got {
		if h.Get("Accept") != "application/json" {
			t.Errorf("request %d: unexpected Accept %q", i, h.Get("Accept"))
		}
		if h.Get("Content-Type") != "application/json" {
			t.Errorf("request %d: unexpected Content-Type %q", i, h.Get("Content-Type"))
		}
		if h.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("request %d: unexpected Authorization %q", i, h.Get("Authorization"))
		}
		if h.Get("X-Request-ID") == "" {
			t.Errorf("request %d: missing X-Request-ID", i)
		}
	}
}

func TestClient_ReadsTokenOnEachCall(t *testing.T) {
	tokens := &staticToken{value: "old"}

	var auths []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[]`)
	}, tokens, api.Options{})

	c.FetchTodos(context.Background())
	tokens.value = "new"
	c.FetchTodos(context.Background())

	if len(auths) != 2 || auths[0] != "Bearer old" || auths[1] != "Bearer new" {
		t.Errorf("expected rotated tokens, got %v", auths)
	}
}

func TestClient_EmptyTokenStillSendsHeader(t *testing.T) {
	var auth string
	var present bool
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthorized"}`)
	}, &staticToken{}, api.Options{})

	res := c.FetchTodos(context.Background())

	if !present || strings.TrimSpace(auth) != "Bearer" {
		t.Errorf("expected bare bearer header, got %q (present=%v)", auth, present)
	}
	if res.Status {
		t.Fatal("expected failure")
	}
	if res.Message != "Unauthorized" || res.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClient_NilTokenSource(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	}, nil, api.Options{})

	if res := c.FetchTodos(context.Background()); !res.Status {
		t.Errorf("expected success, got %+v", res)
	}
}

func TestClient_JoinsBaseURL(t *testing.T) {
	var path string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		writeJSON(w, http.StatusOK, `{}`)
	}, &staticToken{}, api.Options{})

	c.Get(context.Background(), "/todos")
	if path != "/api/todos" {
		t.Errorf("expected /api/todos, got %q", path)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := api.NewClient(url, &staticToken{value: "t"}, api.Options{Logger: discard})
	ctx := context.Background()

	list := c.FetchTodos(ctx)
	if list.Status || !list.Transport() {
		t.Errorf("expected transport failure, got %+v", list)
	}
	if list.Message != api.FallbackMessage {
		t.Errorf("expected fallback message, got %q", list.Message)
	}
	if list.Err == nil {
		t.Error("expected underlying error")
	}

	create := c.CreateTodo(ctx, model.NewTodo{Name: "x"})
	if create.Status || create.Message != api.FallbackMessage {
		t.Errorf("unexpected create result %+v", create)
	}

	del := c.DeleteTodo(ctx, "1")
	if api.Confirmed(del) {
		t.Error("transport failure must not confirm a delete")
	}
}

func TestClient_CanceledContext(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	}, &staticToken{}, api.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.FetchTodos(ctx)
	if res.Status || !res.Transport() {
		t.Errorf("expected transport failure for canceled context, got %+v", res)
	}
}

func TestClient_FailureMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "message field", status: 400, body: `{"message":"Todo already exists"}`, want: "Todo already exists"},
		{name: "error string", status: 400, body: `{"error":"bad input"}`, want: "bad input"},
		{name: "error object", status: 400, body: `{"error":{"code":"invalid","message":"name too long"}}`, want: "name too long"},
		{name: "errors list", status: 422, body: `{"errors":[{"msg":"name required"},"email invalid"]}`, want: "name required; email invalid"},
		{name: "errors map", status: 422, body: `{"errors":{"password":"too short","email":"taken"}}`, want: "email: taken; password: too short"},
		{name: "empty message falls through", status: 400, body: `{"message":"","error":"fallthrough"}`, want: "fallthrough"},
		{name: "no message", status: 500, body: `{"ok":false}`, want: api.FallbackMessage},
		{name: "html body", status: 502, body: `<html>bad gateway</html>`, want: api.FallbackMessage},
		{name: "empty body", status: 500, body: ``, want: api.FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}, &staticToken{}, api.Options{})

			res := c.CreateTodo(context.Background(), model.NewTodo{Name: "x"})
			if res.Status {
				t.Fatal("expected failure")
			}
			if res.Message != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, res.Message)
			}
			if res.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, res.StatusCode)
			}
			if res.Transport() {
				t.Error("server failure reported as transport failure")
			}
		})
	}
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"not":"a list"}`)
	}, &staticToken{}, api.Options{})

	res := c.FetchTodos(context.Background())
	if res.Status {
		t.Fatal("expected failure for malformed body")
	}
	if res.Message != api.FallbackMessage || res.StatusCode != http.StatusOK || res.Err == nil {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClient_FetchTodos(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/todos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, `[
			{"_id":"1","todo_name":"Buy milk","completed":false},
			{"_id":"2","todo_name":"Walk dog","completed":true}
		]`)
	}, &staticToken{}, api.Options{})

	res := c.FetchTodos(context.Background())
	if !res.Status {
		t.Fatalf("expected success, got %+v", res)
	}
	want := []model.Todo{
		{ID: "1", Name: "Buy milk"},
		{ID: "2", Name: "Walk dog", Completed: true},
	}
	if len(res.Data) != len(want) {
		t.Fatalf("expected %d todos, got %d", len(want), len(res.Data))
	}
	for i := range want {
		if res.Data[i] != want[i] {
			t.Errorf("todo %d: expected %+v, got %+v", i, want[i], res.Data[i])
		}
	}
}

func TestClient_FetchTodos_RequiresArray(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"null", "null"},
		{"object", `{"todos":[]}`},
		{"string", `"nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			}, &staticToken{}, api.Options{})

			res := c.FetchTodos(context.Background())
			if res.Status {
				t.Fatalf("expected failure, got %+v", res)
			}
			if res.StatusCode != http.StatusOK || res.Err == nil {
				t.Errorf("expected a decode failure with status 200, got %+v", res)
			}
			if res.Message != api.FallbackMessage {
				t.Errorf("expected fallback message, got %q", res.Message)
			}
		})
	}
}

func TestClient_FetchTodos_EmptyArray(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, " [] ")
	}, &staticToken{}, api.Options{})

	res := c.FetchTodos(context.Background())
	if !res.Status || res.Data == nil || len(res.Data) != 0 {
		t.Errorf("expected an empty non-nil list, got %+v", res)
	}
}

func TestClient_CreateTodo(t *testing.T) {
	var body map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/addTodo" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, `{"message":"Created"}`)
	}, &staticToken{}, api.Options{})

	res := c.CreateTodo(context.Background(), model.NewTodo{Name: "Buy milk"})
	if !res.Status || res.Data.Message != "Created" {
		t.Fatalf("unexpected result %+v", res)
	}
	if body["todo_name"] != "Buy milk" || body["completed"] != false {
		t.Errorf("unexpected body %v", body)
	}
}

func TestClient_UpdateTodo(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		wantMethod string
	}{
		{name: "default post", method: "", wantMethod: http.MethodPost},
		{name: "put", method: "put", wantMethod: http.MethodPut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath, gotBody string
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.EscapedPath()
				b, _ := io.ReadAll(r.Body)
				gotBody = string(b)
				writeJSON(w, http.StatusOK, `{"message":"Updated"}`)
			}, &staticToken{}, api.Options{UpdateMethod: tt.method})

			res := c.UpdateTodo(context.Background(), "a/b", model.CompletedPatch(true))
			if !res.Status || res.Data.Message != "Updated" {
				t.Fatalf("unexpected result %+v", res)
			}
			if gotMethod != tt.wantMethod {
				t.Errorf("expected %s, got %s", tt.wantMethod, gotMethod)
			}
			if gotPath != "/api/todos/a%2Fb" {
				t.Errorf("expected escaped id path, got %q", gotPath)
			}
			if gotBody != `{"completed":true}` {
				t.Errorf("unexpected body %s", gotBody)
			}
		})
	}
}

func TestClient_DeleteTodo(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantStatus    bool
		wantConfirmed bool
	}{
		{name: "confirmed", status: 200, body: `{"success":true,"message":"Deleted"}`, wantStatus: true, wantConfirmed: true},
		{name: "server refused", status: 200, body: `{"success":false,"message":"Not yours"}`, wantStatus: true, wantConfirmed: false},
		{name: "empty body", status: 204, body: ``, wantStatus: true, wantConfirmed: false},
		{name: "not found", status: 404, body: `{"message":"Not found"}`, wantStatus: false, wantConfirmed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/api/todos/7" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if tt.status == http.StatusNoContent {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			}, &staticToken{}, api.Options{})

			res := c.DeleteTodo(context.Background(), "7")
			if res.Status != tt.wantStatus {
				t.Errorf("expected status %v, got %+v", tt.wantStatus, res)
			}
			if api.Confirmed(res) != tt.wantConfirmed {
				t.Errorf("expected confirmed %v, got %v", tt.wantConfirmed, api.Confirmed(res))
			}
		})
	}
}

func TestClient_Upload(t *testing.T) {
	var (
		authHeader  string
		fileName    string
		fileType    string
		fileContent string
		caption     string
		album       string
	)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
			writeJSON(w, http.StatusBadRequest, `{}`)
			return
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("reading file part: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			fileContent = string(b)
			fileName = hdr.Filename
			fileType = hdr.Header.Get("Content-Type")
			f.Close()
		}
		caption = r.FormValue("caption")
		album = r.FormValue("album")
		writeJSON(w, http.StatusOK, `{"message":"Uploaded"}`)
	}, &staticToken{value: "up"}, api.Options{})

	res := c.Upload(context.Background(), "upload", api.File{
		Name:    "photo.jpg",
		Content: strings.NewReader("binary-bytes"),
	}, map[string]string{"caption": "hello", "album": "2024"})

	if !res.Status {
		t.Fatalf("expected success, got %+v", res)
	}
	if authHeader != "Bearer up" {
		t.Errorf("unexpected auth %q", authHeader)
	}
	if fileName != "photo.jpg" || fileType != "image/jpeg" || fileContent != "binary-bytes" {
		t.Errorf("unexpected file part %q %q %q", fileName, fileType, fileContent)
	}
	if caption != "hello" || album != "2024" {
		t.Errorf("unexpected fields caption=%q album=%q", caption, album)
	}
}

func TestClient_UploadFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusRequestEntityTooLarge, `{"message":"File too large"}`)
	}, &staticToken{}, api.Options{})

	res := c.Upload(context.Background(), "upload", api.File{
		Field:       "avatar",
		Name:        "a.png",
		ContentType: "image/png",
		Content:     strings.NewReader("x"),
	}, nil)

	if res.Status || res.Message != "File too large" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClient_Login(t *testing.T) {
	var creds model.Credentials
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		writeJSON(w, http.StatusOK, `{"token":"jwt-1","message":"Welcome"}`)
	}, &staticToken{}, api.Options{})

	res := c.Login(context.Background(), model.Credentials{Email: "a@b.co", Password: "secret"})
	if !res.Status || res.Data.Token != "jwt-1" || res.Data.Message != "Welcome" {
		t.Fatalf("unexpected result %+v", res)
	}
	if creds.Email != "a@b.co" || creds.Password != "secret" {
		t.Errorf("unexpected credentials %+v", creds)
	}
}

func TestClient_Register(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/register" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, `{"status":false,"message":"Email taken"}`)
	}, &staticToken{}, api.Options{})

	res := c.Register(context.Background(), model.Credentials{Email: "a@b.co", Password: "secret"})
	if !res.Status {
		t.Fatalf("expected transport success, got %+v", res)
	}
	if res.Data.Status || res.Data.Message != "Email taken" {
		t.Errorf("unexpected body %+v", res.Data)
	}
}
