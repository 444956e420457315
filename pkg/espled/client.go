package espled

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robotalks/serterm/pkg/framing"
	"github.com/robotalks/serterm/pkg/term"
)

// ErrTimeout indicates no reply was received in time.
var ErrTimeout = errors.New("reply timeout")

// CommandSender sends a command line, e.g. *term.Writer.
type CommandSender interface {
	Send(cmd string) error
}

// DefaultTimeout is the default wait for a reply.
const DefaultTimeout = 5 * time.Second

// Client sends requests and pairs them with replies.
// A reply is the next received message which is valid JSON, or whose last
// line is; other messages are passed to Fallback.
// Replies are paired in request order, so a request which expired still
// holds its place until its late reply arrives.
type Client struct {
	Sender   CommandSender
	Fallback term.MessageHandler
	Timeout  time.Duration

	pending []*pendingRequest
	lock    sync.Mutex
}

type pendingRequest struct {
	replyCh chan json.RawMessage
	expired bool
}

// NewClient creates a Client.
func NewClient(sender CommandSender) *Client {
	return &Client{Sender: sender, Timeout: DefaultTimeout}
}

// HandleMessage implements term.MessageHandler.
func (c *Client) HandleMessage(ctx context.Context, msg *framing.Message) {
	reply, logs, ok := splitReply(msg)
	if !ok {
		c.fallback(ctx, msg)
		return
	}
	c.lock.Lock()
	var req *pendingRequest
	if len(c.pending) > 0 {
		req, c.pending = c.pending[0], c.pending[1:]
	}
	expired := req != nil && req.expired
	c.lock.Unlock()
	if req == nil || expired {
		c.fallback(ctx, msg)
		return
	}
	if logs != "" {
		c.fallback(ctx, &framing.Message{Raw: []byte(logs), Text: logs, Valid: true})
	}
	req.replyCh <- reply
}

func (c *Client) fallback(ctx context.Context, msg *framing.Message) {
	if h := c.Fallback; h != nil {
		h.HandleMessage(ctx, msg)
	}
}

// splitReply extracts the JSON reply from a message. The firmware may print
// log lines into the same frame before the reply, which are returned as logs.
func splitReply(msg *framing.Message) (reply json.RawMessage, logs string, ok bool) {
	if !msg.Valid {
		return nil, "", false
	}
	if json.Valid([]byte(msg.Text)) {
		return json.RawMessage(msg.Text), "", true
	}
	pos := strings.LastIndexByte(msg.Text, '\n')
	if pos < 0 {
		return nil, "", false
	}
	last := strings.TrimSpace(msg.Text[pos+1:])
	if last == "" || !json.Valid([]byte(last)) {
		return nil, "", false
	}
	return json.RawMessage(last), strings.TrimSpace(msg.Text[:pos]), true
}

// Do sends a request and decodes the reply into out, which may be nil.
func (c *Client) Do(ctx context.Context, req *Request, out interface{}) error {
	cmd, err := req.Encode()
	if err != nil {
		return err
	}
	pending := &pendingRequest{replyCh: make(chan json.RawMessage, 1)}
	c.lock.Lock()
	if err := c.Sender.Send(cmd); err != nil {
		c.lock.Unlock()
		return err
	}
	c.pending = append(c.pending, pending)
	c.lock.Unlock()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	select {
	case reply := <-pending.replyCh:
		if out == nil {
			return nil
		}
		return json.Unmarshal(reply, out)
	case <-time.After(timeout):
		c.expire(pending)
		return ErrTimeout
	case <-ctx.Done():
		c.expire(pending)
		return ctx.Err()
	}
}

// expire keeps the request queued so its late reply is not taken by the
// next request.
func (c *Client) expire(req *pendingRequest) {
	c.lock.Lock()
	req.expired = true
	c.lock.Unlock()
}

// Name requests the controller name.
func (c *Client) Name(ctx context.Context) (name string, err error) {
	err = c.Do(ctx, &Request{Kind: GetName}, &name)
	return
}

// Effects requests the names of all effects.
func (c *Client) Effects(ctx context.Context) (effects []string, err error) {
	err = c.Do(ctx, &Request{Kind: GetEffects}, &effects)
	return
}

// Effect requests the name of the selected effect.
func (c *Client) Effect(ctx context.Context) (effect string, err error) {
	err = c.Do(ctx, &Request{Kind: GetEffect}, &effect)
	return
}

// Parameters requests the options of the selected effect.
func (c *Client) Parameters(ctx context.Context) (params map[string]Parameter, err error) {
	err = c.Do(ctx, &Request{Kind: GetParameters}, &params)
	return
}

// ErrEffectRejected indicates the controller refused to select an effect,
// e.g. the index is out of range.
var ErrEffectRejected = errors.New("effect rejected")

// SetEffect selects an effect by index.
func (c *Client) SetEffect(ctx context.Context, index int) error {
	var accepted bool
	if err := c.Do(ctx, NewSetEffect(index), &accepted); err != nil {
		return err
	}
	if !accepted {
		return fmt.Errorf("%w: %d", ErrEffectRejected, index)
	}
	return nil
}

// SetOption sets an option of the selected effect.
func (c *Client) SetOption(ctx context.Context, name string, value Parameter) error {
	return c.Do(ctx, NewSetOption(name, value), nil)
}

// ErrUnknownEffect indicates the effect name is not listed by the controller.
var ErrUnknownEffect = errors.New("unknown effect")

// SelectEffect selects an effect by index or name.
// It returns the index of the selected effect.
func (c *Client) SelectEffect(ctx context.Context, effect string) (int, error) {
	if index, err := strconv.Atoi(effect); err == nil {
		return index, c.SetEffect(ctx, index)
	}
	effects, err := c.Effects(ctx)
	if err != nil {
		return -1, err
	}
	for index, name := range effects {
		if strings.EqualFold(name, effect) {
			return index, c.SetEffect(ctx, index)
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownEffect, effect)
}
