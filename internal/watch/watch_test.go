package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yildizm/catform/internal/form"
)

type chanSink chan string

func (c chanSink) UpdateLog(msg string, isAlert bool) {
	select {
	case c <- msg:
	default:
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitFor(t *testing.T, sink chanSink, prefix string) string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-sink:
			if strings.HasPrefix(msg, prefix) {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", prefix)
			return ""
		}
	}
}

func TestWatcherFollowsSelection(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "catalog.xml")
	in1 := filepath.Join(dir, "a.csv")
	in2 := filepath.Join(dir, "b.csv")
	for _, p := range []string{tpl, in1, in2} {
		writeFile(t, p, "x")
	}

	store := form.NewStore(form.NewState())
	store.Update(func(s *form.State) {
		s.Template = tpl
		s.InputFiles = []string{in1, in2, filepath.Join(dir, "missing.csv")}
	})

	w, err := New(store, make(chanSink, 8), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = w.Close() }()

	if diff := cmp.Diff([]string{in1, in2, tpl}, w.Watched()); diff != "" {
		t.Errorf("watched files (-want +got):\n%s", diff)
	}

	store.Update(func(s *form.State) { s.InputFiles = []string{in2} })
	if diff := cmp.Diff([]string{in2, tpl}, w.Watched()); diff != "" {
		t.Errorf("watched after removal (-want +got):\n%s", diff)
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "catalog.xml")
	writeFile(t, tpl, "<catalog/>")

	store := form.NewStore(form.NewState())
	store.Update(func(s *form.State) { s.Template = tpl })

	sink := make(chanSink, 16)
	w, err := New(store, sink, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, tpl, "<catalog version=\"2\"/>")
	if got := waitFor(t, sink, "File changed on disk: "); !strings.HasSuffix(got, tpl) {
		t.Errorf("unexpected line %q", got)
	}

	if err := os.Remove(tpl); err != nil {
		t.Fatal(err)
	}
	if got := waitFor(t, sink, "File removed from disk: "); !strings.HasSuffix(got, tpl) {
		t.Errorf("unexpected line %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestWatcherWithController(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "bmecat.xsd")
	writeFile(t, schema, "<xs:schema/>")

	ctrl := form.NewController(nil)
	ctrl.Store().Update(func(s *form.State) { s.XMLValidationFile = schema })

	w, err := New(ctrl.Store(), ctrl, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	writeFile(t, schema, "<xs:schema version=\"1.1\"/>")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := ctrl.State()
		if strings.Contains(s.Log, "File changed on disk: "+schema) {
			if s.ShowModal {
				t.Error("file change must not raise the modal")
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("controller log never recorded the change")
}
