package mqtt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/serterm/pkg/framing"
)

// Topics under the queue prefix.
const (
	TopicMsg     = "msg"
	TopicInvalid = "invalid"
	TopicCmd     = "cmd"
)

// CommandSender sends a command to the device, e.g. *term.Writer.
type CommandSender interface {
	Send(cmd string) error
}

// Bridge publishes received messages and forwards remote commands.
// Messages are handed to Run through a bounded backlog so a slow broker
// never stalls the reader; when the backlog is full the message is dropped.
type Bridge struct {
	Queue  *Queue
	Sender CommandSender
	// Notify tells the operator about the broker link, optional.
	Notify func(string)

	PublishTimeout time.Duration
	ConnectTimeout time.Duration

	backlog   chan *framing.Message
	cmdSub    *Subscription
	connected bool
	lock      sync.Mutex
}

// Defaults of Bridge.
const (
	DefaultPublishTimeout = time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultBacklog        = 64
)

// ErrConnectTimeout indicates the broker did not accept the connection in time.
var ErrConnectTimeout = errors.New("mqtt connect timeout")

// NewBridge creates a Bridge.
func NewBridge(q *Queue, sender CommandSender) *Bridge {
	b := &Bridge{
		Queue:          q,
		Sender:         sender,
		PublishTimeout: DefaultPublishTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		backlog:        make(chan *framing.Message, DefaultBacklog),
	}
	q.OnConnect = func() { b.notify("MQTT connected") }
	q.OnConnectionLost = func(err error) { b.notify("MQTT connection lost: " + err.Error()) }
	return b
}

// NewBridgeFromURL creates a Bridge for brokerURL.
func NewBridgeFromURL(brokerURL string, sender CommandSender) (*Bridge, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewBridge(q, sender), nil
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt"
}

// Connect subscribes the command topic and connects to the broker.
// It's called by Run if not called before, calling it first makes a broker
// failure visible at startup.
func (b *Bridge) Connect() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.connected {
		return nil
	}
	if b.cmdSub == nil {
		b.cmdSub = b.Queue.Sub(TopicCmd, b.handleCmd)
	}
	token := b.Queue.Connect()
	if !token.WaitTimeout(b.ConnectTimeout) {
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	b.connected = true
	return nil
}

// HandleMessage implements term.MessageHandler.
func (b *Bridge) HandleMessage(_ context.Context, msg *framing.Message) {
	select {
	case b.backlog <- msg:
	default:
		glog.V(1).Infof("mqtt backlog full, drop %q", msg.Raw)
	}
}

// Run connects to the broker, then publishes messages and forwards
// commands until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Connect(); err != nil {
		glog.Errorf("mqtt bridge not started: %v", err)
		b.notify("MQTT bridge not started: " + err.Error())
		return err
	}
	defer b.Queue.Close()
	defer b.cmdSub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-b.backlog:
			b.publish(msg)
		}
	}
}

func (b *Bridge) publish(msg *framing.Message) {
	if !b.Queue.Client.IsConnected() {
		return
	}
	topic, payload := TopicMsg, []byte(msg.Text)
	if !msg.Valid {
		topic, payload = TopicInvalid, msg.Raw
	}
	token := b.Queue.Pub(topic, payload)
	if !token.WaitTimeout(b.PublishTimeout) {
		glog.Warningf("mqtt publish %q timeout", topic)
		return
	}
	if err := token.Error(); err != nil {
		glog.Warningf("mqtt publish %q failed: %v", topic, err)
	}
}

func (b *Bridge) handleCmd(_ string, payload []byte) {
	if err := b.Sender.Send(string(payload)); err != nil {
		glog.Warningf("forward mqtt command failed: %v", err)
	}
}

func (b *Bridge) notify(text string) {
	if fn := b.Notify; fn != nil {
		fn(text)
	}
}
