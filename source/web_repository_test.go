package source

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sync/atomic"
	"testing"
)

func TestWebRepository(t *testing.T) {
	var gotKey atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/presets/index.txt", func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("X-API-Key"))
		w.Write([]byte("# builtin presets\nopr/all_png.toml\n\n  test/minimal.toml  \nREADME.md\n"))
	})
	mux.HandleFunc("/presets/opr/all_png.toml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[a]\nlang = \"en\"\n"))
	})
	mux.HandleFunc("/presets/test/minimal.toml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("lang = \"de\"\n"))
	})
	testServer := httptest.NewServer(mux)
	defer testServer.Close()

	u, err := url.Parse(testServer.URL + "/presets")
	if err != nil {
		t.Fatal(err)
	}
	repo := &WebRepository{Name: "web", URL: u, APIKey: "secret"}
	if err := repo.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if gotKey.Load() != "secret" {
		t.Errorf("expected X-API-Key header secret, got %v", gotKey.Load())
	}
	if got := repo.List(); !reflect.DeepEqual(got, []string{"opr/all_png", "test/minimal"}) {
		t.Errorf("unexpected presets %v", got)
	}
	file, ok := repo.GetData("opr/all_png")
	if !ok {
		t.Fatal("expected opr/all_png to be present")
	}
	if file.Path != testServer.URL+"/presets/opr/all_png.toml" {
		t.Errorf("unexpected location %q", file.Path)
	}
	if string(file.Raw) != "[a]\nlang = \"en\"\n" {
		t.Errorf("unexpected data %q", file.Raw)
	}
}

func TestWebRepositoryErrors(t *testing.T) {
	var status atomic.Int32
	var body atomic.Value
	status.Store(http.StatusOK)
	body.Store("lang = \"en\"\n")
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.txt" {
			w.Write([]byte("a.toml\n"))
			return
		}
		w.WriteHeader(int(status.Load()))
		w.Write([]byte(body.Load().(string)))
	}))
	defer testServer.Close()

	u, _ := url.Parse(testServer.URL)
	repo := &WebRepository{Name: "web", URL: u}
	if err := repo.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	body.Store("lang = = 1")
	if err := repo.Refresh(); !errors.Is(err, ErrInvalidPreset) {
		t.Errorf("expected ErrInvalidPreset, got %v", err)
	}

	status.Store(http.StatusNotFound)
	if err := repo.Refresh(); err == nil {
		t.Error("expected an error for a non-200 response")
	}

	raw, ok := repo.GetRawData("a")
	if !ok || string(raw) != "lang = \"en\"\n" {
		t.Errorf("expected previous data to be kept, got %q", raw)
	}
}
