package dashboard

import (
	"io/fs"
	"strings"
	"testing"
)

func TestAssets_IndexPage(t *testing.T) {
	content, err := fs.ReadFile(Assets, "assets/index.html")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	page := string(content)
	for _, want := range []string{"{{.Title}}", `new EventSource("/api/sse")`, `"snapshot"`, `"notify"`, `"dismiss"`, `"refreshed"`} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
}
