package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yildizm/catform/internal/form"
)

// stubService answers every call from fixed fields
type stubService struct {
	mu       sync.Mutex
	template string
	inputs   []string
	seen     []string
	rendered []form.Params
	presets  map[string]form.Params
	block    chan struct{}
	fail     error
}

func newStubService() *stubService {
	return &stubService{presets: make(map[string]form.Params)}
}

func (s *stubService) ChooseTemplate(ctx context.Context) (string, error) {
	return s.template, s.fail
}

func (s *stubService) ChooseInputFiles(ctx context.Context, current []string) ([]string, error) {
	s.mu.Lock()
	s.seen = current
	s.mu.Unlock()
	return s.inputs, nil
}

func (s *stubService) ChooseXMLValidationFile(ctx context.Context) (string, error) {
	return "", nil
}

func (s *stubService) ChooseOutputFile(ctx context.Context) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "out.xml", nil
}

func (s *stubService) ExecuteRenderingWorkflow(ctx context.Context, p form.Params) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered = append(s.rendered, p)
	return len(p.InputFiles) > 0, nil
}

func (s *stubService) SavePreset(ctx context.Context, name string, p form.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets[name] = p
	return nil
}

func (s *stubService) GetPresetData(ctx context.Context, name string) (form.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.presets[name]
	if !ok {
		return form.Params{}, errors.New("no such preset")
	}
	return p, nil
}

func (s *stubService) GetPresetNames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.presets))
	for n := range s.presets {
		names = append(names, n)
	}
	return names, nil
}

func (s *stubService) DeletePreset(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.presets, name)
	return nil
}

func (s *stubService) PromptPresetName(ctx context.Context) (string, error) {
	return "from-backend", nil
}

func (s *stubService) ValidationTypes(ctx context.Context) ([]form.ValidationOption, error) {
	return form.DefaultValidationOptions, nil
}

type logLine struct {
	msg   string
	alert bool
}

type recordingSink struct {
	lines chan logLine
}

func (r *recordingSink) UpdateLog(msg string, isAlert bool) {
	r.lines <- logLine{msg: msg, alert: isAlert}
}

func startBridge(t *testing.T, svc form.RenderingService, sink form.LogSink) (*Server, *Client) {
	t.Helper()
	srv := NewServer(svc)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, url, sink)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClientServerRoundTrip(t *testing.T) {
	svc := newStubService()
	svc.template = "/tpl/catalog.xml"
	svc.inputs = []string{"new.csv", "a.csv"}
	_, client := startBridge(t, svc, nil)
	ctx := testContext(t)

	tpl, err := client.ChooseTemplate(ctx)
	if err != nil || tpl != "/tpl/catalog.xml" {
		t.Fatalf("ChooseTemplate = %q, %v", tpl, err)
	}

	files, err := client.ChooseInputFiles(ctx, []string{"a.csv"})
	if err != nil {
		t.Fatalf("ChooseInputFiles: %v", err)
	}
	if diff := cmp.Diff([]string{"new.csv", "a.csv"}, files); diff != "" {
		t.Errorf("input files (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.csv"}, svc.seen); diff != "" {
		t.Errorf("backend saw current list (-want +got):\n%s", diff)
	}

	schema, err := client.ChooseXMLValidationFile(ctx)
	if err != nil || schema != "" {
		t.Errorf("cancelled dialog should be empty, got %q, %v", schema, err)
	}

	params := form.Params{
		InputFiles:        []string{"a.csv"},
		Template:          "t.xml",
		OutputFile:        "out.xml",
		PrettifyOutput:    true,
		ValidationType:    form.ValidationXML,
		XMLValidationFile: "s.xsd",
	}
	ok, err := client.ExecuteRenderingWorkflow(ctx, params)
	if err != nil || !ok {
		t.Fatalf("ExecuteRenderingWorkflow = %v, %v", ok, err)
	}
	if diff := cmp.Diff([]form.Params{params}, svc.rendered); diff != "" {
		t.Errorf("rendered params (-want +got):\n%s", diff)
	}

	if err := client.SavePreset(ctx, "P1", params); err != nil {
		t.Fatalf("SavePreset: %v", err)
	}
	names, err := client.GetPresetNames(ctx)
	if err != nil {
		t.Fatalf("GetPresetNames: %v", err)
	}
	if diff := cmp.Diff([]string{"P1"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	loaded, err := client.GetPresetData(ctx, "P1")
	if err != nil {
		t.Fatalf("GetPresetData: %v", err)
	}
	if diff := cmp.Diff(params, loaded); diff != "" {
		t.Errorf("preset data (-want +got):\n%s", diff)
	}
	if err := client.DeletePreset(ctx, "P1"); err != nil {
		t.Fatalf("DeletePreset: %v", err)
	}

	name, err := client.PromptPresetName(ctx)
	if err != nil || name != "from-backend" {
		t.Errorf("PromptPresetName = %q, %v", name, err)
	}
	opts, err := client.ValidationTypes(ctx)
	if err != nil {
		t.Fatalf("ValidationTypes: %v", err)
	}
	if diff := cmp.Diff(form.DefaultValidationOptions, opts); diff != "" {
		t.Errorf("validation types (-want +got):\n%s", diff)
	}
}

func TestRemoteErrors(t *testing.T) {
	svc := newStubService()
	svc.fail = errors.New("dialog crashed")
	_, client := startBridge(t, svc, nil)
	ctx := testContext(t)

	_, err := client.ChooseTemplate(ctx)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Method != MethodChooseTemplate || remote.Message != "dialog crashed" {
		t.Errorf("unexpected remote error %+v", remote)
	}

	_, err = client.GetPresetData(ctx, "missing")
	if !errors.As(err, &remote) {
		t.Errorf("expected RemoteError for missing preset, got %v", err)
	}
}

func TestServerPushesUpdateLog(t *testing.T) {
	sink := &recordingSink{lines: make(chan logLine, 4)}
	srv, client := startBridge(t, newStubService(), sink)

	// the server registers the peer asynchronously; a completed call proves it is attached
	if _, err := client.GetPresetNames(testContext(t)); err != nil {
		t.Fatalf("GetPresetNames: %v", err)
	}
	if srv.Connections() != 1 {
		t.Fatalf("connections = %d", srv.Connections())
	}

	srv.UpdateLog("Preset successfully saved: P1", false)
	srv.UpdateLog("Preset successfully removed: P1", true)

	want := []logLine{
		{msg: "Preset successfully saved: P1"},
		{msg: "Preset successfully removed: P1", alert: true},
	}
	for i, w := range want {
		select {
		case got := <-sink.lines:
			if got != w {
				t.Errorf("line %d = %+v, want %+v", i, got, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for line %d", i)
		}
	}
}

func TestUpdateLogKeepsOrder(t *testing.T) {
	const n = 500
	sink := &recordingSink{lines: make(chan logLine, n)}
	srv, client := startBridge(t, newStubService(), sink)
	if _, err := client.GetPresetNames(testContext(t)); err != nil {
		t.Fatalf("GetPresetNames: %v", err)
	}

	for i := 0; i < n; i++ {
		srv.UpdateLog(fmt.Sprintf("step %d", i), false)
	}

	for i := 0; i < n; i++ {
		select {
		case got := <-sink.lines:
			if want := fmt.Sprintf("step %d", i); got.msg != want {
				t.Fatalf("line %d = %q, want %q", i, got.msg, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for line %d", i)
		}
	}
}

// renderService pushes a log line to the form before answering the render
type renderService struct {
	*stubService
	srv *Server
}

func (r *renderService) ExecuteRenderingWorkflow(ctx context.Context, p form.Params) (bool, error) {
	r.srv.UpdateLog("Template error: unknown tag", false)
	return false, nil
}

func TestUpdateLogArrivesBeforeReply(t *testing.T) {
	svc := &renderService{stubService: newStubService()}
	srv := NewServer(svc)
	svc.srv = srv
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	ctrl := form.NewController(nil)
	client, err := Dial(testContext(t), "ws"+strings.TrimPrefix(ts.URL, "http"), ctrl)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	ctx := testContext(t)

	for i := 0; i < 20; i++ {
		if _, err := client.ExecuteRenderingWorkflow(ctx, form.Params{}); err != nil {
			t.Fatalf("ExecuteRenderingWorkflow: %v", err)
		}
		ctrl.UpdateLog(form.MsgCatalogFailed, false)
	}

	lines := strings.Split(strings.TrimRight(ctrl.State().Log, "\n"), "\n")
	if len(lines) != 40 {
		t.Fatalf("got %d log lines, want 40", len(lines))
	}
	for i, line := range lines {
		want := "Template error: unknown tag"
		if i%2 == 1 {
			want = form.MsgCatalogFailed
		}
		if !strings.HasSuffix(line, want) {
			t.Fatalf("line %d = %q, want suffix %q", i, line, want)
		}
	}
}

func TestCloseWaitsForReadLoop(t *testing.T) {
	_, client := startBridge(t, newStubService(), nil)
	if err := client.Close(); err != nil {
		t.Logf("close: %v", err)
	}
	select {
	case <-client.readDone:
	default:
		t.Error("Close returned before the read loop exited")
	}
}

func TestCallHonoursContext(t *testing.T) {
	svc := newStubService()
	svc.block = make(chan struct{})
	defer close(svc.block)
	_, client := startBridge(t, svc, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.ChooseOutputFile(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestCloseFailsPendingCalls(t *testing.T) {
	svc := newStubService()
	svc.block = make(chan struct{})
	defer close(svc.block)
	_, client := startBridge(t, svc, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := client.ChooseOutputFile(context.Background())
		errc <- err
	}()

	time.Sleep(50 * time.Millisecond)
	_ = client.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pending call not released")
	}

	if _, err := client.ChooseTemplate(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("call after close: expected ErrClosed, got %v", err)
	}
	select {
	case <-client.Done():
	default:
		t.Error("Done not closed")
	}
}

func TestControllerOverBridge(t *testing.T) {
	svc := newStubService()
	svc.template = "t.xml"
	svc.inputs = []string{"a.csv"}
	_, client := startBridge(t, svc, nil)
	ctrl := form.NewController(client)
	client.SetSink(ctrl)
	ctx := testContext(t)

	ctrl.ChooseTemplate(ctx)
	ctrl.ChooseInputFiles(ctx)
	ctrl.SubmitForm(ctx)

	s := ctrl.State()
	if s.OutputFile != "out.xml" {
		t.Errorf("output file = %q", s.OutputFile)
	}
	if !strings.Contains(s.Log, form.MsgCatalogGenerated) {
		t.Errorf("log missing success line:\n%s", s.Log)
	}
	if s.IsLoading {
		t.Error("busy flag left set")
	}
}

func TestDecodeArgs(t *testing.T) {
	args, err := decodeArgs([]byte(`["only"]`), 2)
	if err != nil {
		t.Fatalf("decodeArgs: %v", err)
	}
	if string(args[0]) != `"only"` || args[1] != nil {
		t.Errorf("unexpected args %q", args)
	}
	if _, err := decodeArgs([]byte(`[1,2,3]`), 2); err == nil {
		t.Error("expected error for too many params")
	}
	if _, err := decodeArgs([]byte(`{}`), 1); err == nil {
		t.Error("expected error for non-array params")
	}
}
