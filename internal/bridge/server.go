package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yildizm/catform/internal/form"
	"github.com/yildizm/catform/internal/logger"
)

// Server exposes a form.RenderingService to bridge clients. It is what a Go
// backend mounts to talk to the form.
type Server struct {
	svc          form.RenderingService
	upgrader     websocket.Upgrader
	log          *logger.Logger
	writeTimeout time.Duration

	mu    sync.Mutex
	peers map[*peer]struct{}
}

// ServerOption configures NewServer
type ServerOption func(*Server)

// WithServerLogger sets the diagnostic logger
func WithServerLogger(l *logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithServerWriteTimeout bounds each frame write
func WithServerWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.writeTimeout = d }
}

// WithCheckOrigin overrides the websocket origin check
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// NewServer wraps svc in a websocket handler
func NewServer(svc form.RenderingService, opts ...ServerOption) *Server {
	s := &Server{
		svc:   svc,
		log:   logger.Nop(),
		peers: make(map[*peer]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP upgrades the request and serves calls until the client leaves
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed: %v", err)
		return
	}

	p := newPeer(conn, s.dispatch, s.log, s.writeTimeout)
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()
	s.log.Info("form connected from %s", r.RemoteAddr)

	err = p.readLoop()

	s.mu.Lock()
	delete(s.peers, p)
	s.mu.Unlock()
	_ = conn.Close()
	s.log.Info("form disconnected: %v", err)
}

// UpdateLog pushes a log line to every connected form
func (s *Server) UpdateLog(msg string, isAlert bool) {
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		if err := p.notify(MethodUpdateLog, []interface{}{msg, isAlert}); err != nil {
			s.log.Debug("updateLog not delivered: %v", err)
		}
	}
}

// Connections reports how many forms are attached
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// Close disconnects every form
func (s *Server) Close() error {
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	var firstErr error
	for _, p := range peers {
		if err := p.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case MethodChooseTemplate:
		return optionalString(s.svc.ChooseTemplate(ctx))
	case MethodChooseXMLValidationFile:
		return optionalString(s.svc.ChooseXMLValidationFile(ctx))
	case MethodChooseOutputFile:
		return optionalString(s.svc.ChooseOutputFile(ctx))
	case MethodPromptPresetName:
		return optionalString(s.svc.PromptPresetName(ctx))

	case MethodChooseInputFiles:
		args, err := decodeArgs(params, 1)
		if err != nil {
			return nil, err
		}
		var current []string
		if err := decodeArg(args[0], &current); err != nil {
			return nil, fmt.Errorf("current files: %w", err)
		}
		files, err := s.svc.ChooseInputFiles(ctx, current)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, nil
		}
		return files, nil

	case MethodExecuteRendering:
		var p form.Params
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.svc.ExecuteRenderingWorkflow(ctx, p)

	case MethodSavePreset:
		args, err := decodeArgs(params, 2)
		if err != nil {
			return nil, err
		}
		var name string
		var p form.Params
		if err := decodeArg(args[0], &name); err != nil {
			return nil, fmt.Errorf("preset name: %w", err)
		}
		if err := decodeArg(args[1], &p); err != nil {
			return nil, fmt.Errorf("preset data: %w", err)
		}
		return nil, s.svc.SavePreset(ctx, name, p)

	case MethodGetPresetData:
		name, err := nameArg(params)
		if err != nil {
			return nil, err
		}
		p, err := s.svc.GetPresetData(ctx, name)
		if err != nil {
			return nil, err
		}
		return p, nil

	case MethodGetPresetNames:
		return s.svc.GetPresetNames(ctx)

	case MethodDeletePreset:
		name, err := nameArg(params)
		if err != nil {
			return nil, err
		}
		return nil, s.svc.DeletePreset(ctx, name)

	case MethodValidationTypes:
		return s.svc.ValidationTypes(ctx)
	}
	return nil, errUnknownMethod(method)
}

// optionalString maps "" to a JSON null, the way a cancelled dialog is reported
func optionalString(v string, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if v == "" {
		return nil, nil
	}
	return v, nil
}

func nameArg(params json.RawMessage) (string, error) {
	args, err := decodeArgs(params, 1)
	if err != nil {
		return "", err
	}
	var name string
	if err := decodeArg(args[0], &name); err != nil {
		return "", fmt.Errorf("preset name: %w", err)
	}
	return name, nil
}
