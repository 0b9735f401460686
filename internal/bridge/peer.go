package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yildizm/catform/internal/logger"
)

// handlerFunc serves one incoming call
type handlerFunc func(ctx context.Context, method string, params json.RawMessage) (interface{}, error)

// peer is one end of a bridge connection. Writes are serialized; replies
// are matched to pending calls by id.
type peer struct {
	conn         *websocket.Conn
	handler      handlerFunc
	log          *logger.Logger
	writeTimeout time.Duration

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan frame
	closed  bool
	done    chan struct{}
	err     error

	ctx    context.Context
	cancel context.CancelFunc
}

func newPeer(conn *websocket.Conn, handler handlerFunc, log *logger.Logger, writeTimeout time.Duration) *peer {
	ctx, cancel := context.WithCancel(context.Background())
	return &peer{
		conn:         conn,
		handler:      handler,
		log:          log,
		writeTimeout: writeTimeout,
		pending:      make(map[uint64]chan frame),
		done:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (p *peer) write(f *frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.writeTimeout > 0 {
		if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return err
		}
	}
	return p.conn.WriteJSON(f)
}

// call sends method with params and decodes the reply into out (if non-nil)
func (p *peer) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}

	id := p.nextID.Add(1)
	ch := make(chan frame, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.pending[id] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.write(&frame{ID: id, Type: frameCall, Method: method, Params: raw}); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}
	p.log.DebugWithFields("call sent", []logger.Field{logger.Method(method), logger.F("id", id)})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrClosed
	case reply := <-ch:
		if reply.Error != "" {
			return &RemoteError{Method: method, Message: reply.Error}
		}
		if out == nil || len(reply.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(reply.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	}
}

// notify sends a call that expects no reply
func (p *peer) notify(method string, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	if p.isClosed() {
		return ErrClosed
	}
	return p.write(&frame{Type: frameCall, Method: method, Params: raw})
}

// readLoop dispatches frames until the connection fails. Notifications are
// handled before the next frame is read, so they are seen in the order sent
// and ahead of any reply that follows them.
func (p *peer) readLoop() error {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			p.shutdown(err)
			return err
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			p.log.Warn("dropping malformed frame: %v", err)
			continue
		}

		switch f.Type {
		case frameReply:
			p.deliver(f)
		case frameCall:
			// notifications run in arrival order; calls awaiting a reply may block
			if f.ID == 0 {
				p.serve(f)
			} else {
				go p.serve(f)
			}
		default:
			p.log.Warn("dropping frame of unknown type %q", f.Type)
		}
	}
}

func (p *peer) deliver(f frame) {
	p.mu.Lock()
	ch, ok := p.pending[f.ID]
	p.mu.Unlock()
	if !ok {
		p.log.Debug("reply for unknown call %d", f.ID)
		return
	}
	ch <- f
}

func (p *peer) serve(f frame) {
	result, err := p.handler(p.ctx, f.Method, f.Params)
	if f.ID == 0 {
		if err != nil {
			p.log.WarnWithFields("notification failed", []logger.Field{logger.Method(f.Method), logger.Error(err)})
		}
		return
	}

	reply := frame{ID: f.ID, Type: frameReply}
	if err != nil {
		reply.Error = err.Error()
	} else if result != nil {
		raw, merr := json.Marshal(result)
		if merr != nil {
			reply.Error = fmt.Sprintf("encode result: %v", merr)
		} else {
			reply.Result = raw
		}
	} else {
		reply.Result = json.RawMessage("null")
	}

	if werr := p.write(&reply); werr != nil {
		p.log.WarnWithFields("reply failed", []logger.Field{logger.Method(f.Method), logger.Error(werr)})
	}
}

func (p *peer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// shutdown marks the peer closed and releases every pending call
func (p *peer) shutdown(err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.err = err
	p.mu.Unlock()

	p.cancel()
	close(p.done)
}

// close sends a close frame and tears the connection down
func (p *peer) close() error {
	p.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	p.writeMu.Unlock()

	p.shutdown(ErrClosed)
	return p.conn.Close()
}
