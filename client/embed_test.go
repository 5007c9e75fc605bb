package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestScriptEmbedded(t *testing.T) {
	data, err := GetFile(ScriptName)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"phx_join", "step:intersect", "tab:select", "panel:scroll", "panelTimers", "form[data-inert]"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("script does not mention %q", want)
		}
	}

	names := FileNames()
	if len(names) != 1 || names[0] != ScriptName {
		t.Errorf("unexpected embedded files %v", names)
	}
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+ScriptName, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("unexpected Cache-Control %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("unexpected Content-Type %q", ct)
	}
}
