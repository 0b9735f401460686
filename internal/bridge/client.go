package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yildizm/catform/internal/form"
	"github.com/yildizm/catform/internal/logger"
)

// Client is the form's end of the bridge. It implements form.RenderingService
// and hands backend updateLog calls to a form.LogSink.
type Client struct {
	peer     *peer
	sink     form.LogSink
	log      *logger.Logger
	readDone chan struct{}
}

var _ form.RenderingService = (*Client)(nil)

// ClientOption configures Dial
type ClientOption func(*clientOptions)

type clientOptions struct {
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	log              *logger.Logger
}

// WithHandshakeTimeout bounds the websocket opening handshake
func WithHandshakeTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.handshakeTimeout = d }
}

// WithWriteTimeout bounds each frame write
func WithWriteTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.writeTimeout = d }
}

// WithClientLogger sets the diagnostic logger
func WithClientLogger(l *logger.Logger) ClientOption {
	return func(o *clientOptions) { o.log = l }
}

// Dial connects to the backend at url. sink receives backend log lines and
// may be nil until SetSink is called.
func Dial(ctx context.Context, url string, sink form.LogSink, opts ...ClientOption) (*Client, error) {
	o := clientOptions{
		handshakeTimeout: 10 * time.Second,
		log:              logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	dialer := websocket.Dialer{HandshakeTimeout: o.handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("connect to backend %s: %w", url, err)
	}

	c := &Client{
		sink: sink,
		log:  o.log,
	}
	c.peer = newPeer(conn, c.handle, o.log, o.writeTimeout)
	c.readDone = make(chan struct{})
	go func() {
		defer close(c.readDone)
		if err := c.peer.readLoop(); err != nil {
			o.log.Debug("backend connection ended: %v", err)
		}
	}()

	o.log.Info("connected to backend %s", url)
	return c, nil
}

// SetSink replaces the receiver of backend log lines
func (c *Client) SetSink(sink form.LogSink) {
	c.peer.mu.Lock()
	c.sink = sink
	c.peer.mu.Unlock()
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.peer.done
}

// Err reports why the connection ended, or nil while it is open
func (c *Client) Err() error {
	c.peer.mu.Lock()
	defer c.peer.mu.Unlock()
	return c.peer.err
}

// Close terminates the connection and waits for the read loop to exit;
// pending calls fail with ErrClosed
func (c *Client) Close() error {
	err := c.peer.close()
	<-c.readDone
	return err
}

func (c *Client) handle(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	if method != MethodUpdateLog {
		return nil, errUnknownMethod(method)
	}
	args, err := decodeArgs(params, 2)
	if err != nil {
		return nil, err
	}
	var msg string
	var isAlert bool
	if err := decodeArg(args[0], &msg); err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}
	if err := decodeArg(args[1], &isAlert); err != nil {
		return nil, fmt.Errorf("isAlert: %w", err)
	}

	c.peer.mu.Lock()
	sink := c.sink
	c.peer.mu.Unlock()
	if sink != nil {
		sink.UpdateLog(msg, isAlert)
	}
	return nil, nil
}

func noArgs() []interface{} { return []interface{}{} }

func (c *Client) callString(ctx context.Context, method string, params interface{}) (string, error) {
	var out *string
	if err := c.peer.call(ctx, method, params, &out); err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return *out, nil
}

// ChooseTemplate asks the backend to open the template dialog
func (c *Client) ChooseTemplate(ctx context.Context) (string, error) {
	return c.callString(ctx, MethodChooseTemplate, noArgs())
}

// ChooseInputFiles asks the backend to open the input file dialog
func (c *Client) ChooseInputFiles(ctx context.Context, current []string) ([]string, error) {
	if current == nil {
		current = []string{}
	}
	var out []string
	if err := c.peer.call(ctx, MethodChooseInputFiles, []interface{}{current}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChooseXMLValidationFile asks the backend to open the schema dialog
func (c *Client) ChooseXMLValidationFile(ctx context.Context) (string, error) {
	return c.callString(ctx, MethodChooseXMLValidationFile, noArgs())
}

// ChooseOutputFile asks the backend to open the save dialog
func (c *Client) ChooseOutputFile(ctx context.Context) (string, error) {
	return c.callString(ctx, MethodChooseOutputFile, noArgs())
}

// ExecuteRenderingWorkflow runs the render; the six parameters travel positionally
func (c *Client) ExecuteRenderingWorkflow(ctx context.Context, p form.Params) (bool, error) {
	var ok bool
	if err := c.peer.call(ctx, MethodExecuteRendering, p, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// SavePreset stores p under name
func (c *Client) SavePreset(ctx context.Context, name string, p form.Params) error {
	return c.peer.call(ctx, MethodSavePreset, []interface{}{name, p}, nil)
}

// GetPresetData fetches the tuple stored under name
func (c *Client) GetPresetData(ctx context.Context, name string) (form.Params, error) {
	var out *form.Params
	if err := c.peer.call(ctx, MethodGetPresetData, []interface{}{name}, &out); err != nil {
		return form.Params{}, err
	}
	if out == nil {
		return form.Params{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return *out, nil
}

// GetPresetNames lists stored preset names
func (c *Client) GetPresetNames(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.peer.call(ctx, MethodGetPresetNames, noArgs(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// DeletePreset removes a stored preset
func (c *Client) DeletePreset(ctx context.Context, name string) error {
	return c.peer.call(ctx, MethodDeletePreset, []interface{}{name}, nil)
}

// PromptPresetName asks the backend to prompt the user for a preset name
func (c *Client) PromptPresetName(ctx context.Context) (string, error) {
	return c.callString(ctx, MethodPromptPresetName, noArgs())
}

// ValidationTypes lists the validation modes the backend supports
func (c *Client) ValidationTypes(ctx context.Context) ([]form.ValidationOption, error) {
	var out []form.ValidationOption
	if err := c.peer.call(ctx, MethodValidationTypes, noArgs(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
