package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cwbudde/theremotion/conductor"
	"github.com/cwbudde/theremotion/controls"
	"github.com/cwbudde/theremotion/settings"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// serve runs a web surface on f.model until the test ends.
func serve(t *testing.T, f fixture) http.Handler {
	t.Helper()
	w := NewWeb(f.model, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w.Handler()
}

func TestWebSnapshot(t *testing.T) {
	f := newFixture()
	h := serve(t, f)

	if rec := do(t, h, http.MethodGet, "/api/snapshot", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("before any snapshot: status %d", rec.Code)
	}

	_ = f.snaps.Send(testSnapshot())
	rec := do(t, h, http.MethodGet, "/api/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var v View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.NoteName != "C4" || v.Volume != -30 || len(v.Voices) != 3 || !v.Voices[0].Plucked {
		t.Fatalf("view %+v", v)
	}
}

func TestWebGetSettings(t *testing.T) {
	f := newFixture()
	rec := do(t, serve(t, f), http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got settings.File
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != settings.Default().Preset.Name || got.Handedness == nil || *got.Handedness != settings.RightHanded {
		t.Fatalf("settings %s", rec.Body)
	}
}

func TestWebPutSettings(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"preset", `{"preset": "Blues", "handedness": "left"}`, http.StatusOK},
		{"malformed", `{"preset": `, http.StatusBadRequest},
		{"invalid range", `{"low": "C6", "high": "C3"}`, http.StatusBadRequest},
		{"unknown preset", `{"preset": "polka"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		f := newFixture()
		rec := do(t, serve(t, f), http.MethodPut, "/api/settings", tt.body)
		if rec.Code != tt.status {
			t.Fatalf("%s: status %d, want %d: %s", tt.name, rec.Code, tt.status, rec.Body)
		}
		if tt.status != http.StatusOK {
			if f.conductor.Len() != 0 {
				t.Fatalf("%s: settings sent", tt.name)
			}
			continue
		}
		s := f.lastSettings(t)
		if s.Preset.Name != "Blues" || s.System.Handedness != settings.LeftHanded {
			t.Fatalf("%s: applied %+v", tt.name, s)
		}
	}
}

func TestWebPostControl(t *testing.T) {
	f := newFixture()
	_ = f.snaps.Send(testSnapshot())
	h := serve(t, f)

	rec := do(t, h, http.MethodPost, "/api/controls/"+controls.PathCutoffNote, `{"value": 7.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	m, _ := f.conductor.TryRecv()
	if o, ok := m.(conductor.Override); !ok || o.Path != controls.PathCutoffNote || o.Value != 7.5 {
		t.Fatalf("sent %#v", m)
	}

	if rec := do(t, h, http.MethodPost, "/api/controls/wobble", `{"value": 1}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown control: status %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/controls/volume", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing value: status %d", rec.Code)
	}

	f.conductor.Drop()
	if rec := do(t, h, http.MethodPost, "/api/controls/volume", `{"value": -6}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("after shutdown: status %d", rec.Code)
	}
}

func TestWebStoppedSurface(t *testing.T) {
	f := newFixture()
	w := NewWeb(f.model, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if rec := do(t, w.Handler(), http.MethodGet, "/api/settings", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
	if err := f.snaps.Send(testSnapshot()); err == nil {
		t.Fatal("stopped surface still takes snapshots")
	}
}

func TestWebSettingsFollowConductor(t *testing.T) {
	f := newFixture()
	h := serve(t, f)

	s := testSnapshot()
	s.SettingsVersion = 4
	s.Settings.Preset, _ = settings.LookupPreset("Blues")
	_ = f.snaps.Send(s)

	rec := do(t, h, http.MethodGet, "/api/settings", "")
	var got settings.File
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Blues" {
		t.Fatalf("settings %s", rec.Body)
	}
}
