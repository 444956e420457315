package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/serterm/pkg/framing"
)

type senderFunc func(string) error

func (f senderFunc) Send(cmd string) error {
	return f(cmd)
}

func runBridge(t *testing.T, b *Bridge) (cancel func(), errCh chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh = make(chan error, 1)
	go func() {
		errCh <- b.Run(ctx)
	}()
	return cancel, errCh
}

func TestBridgePublishesMessages(t *testing.T) {
	q, client := newTestQueue("esp/")
	b := NewBridge(q, nil)

	b.publish(framing.Decode([]byte("dropped while offline")))
	require.Empty(t, client.publishedMessages())

	cancel, errCh := runBridge(t, b)
	defer cancel()
	require.Eventually(t, client.IsConnected, time.Second, time.Millisecond)

	b.HandleMessage(context.Background(), framing.Decode([]byte(" hello \n")))
	b.HandleMessage(context.Background(), framing.Decode([]byte{0xff}))
	require.Eventually(t, func() bool {
		return len(client.publishedMessages()) == 2
	}, time.Second, time.Millisecond)
	require.Equal(t, []published{
		{topic: "esp/msg", payload: []byte("hello")},
		{topic: "esp/invalid", payload: []byte{0xff}},
	}, client.publishedMessages())

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestBridgeBacklogDoesNotBlock(t *testing.T) {
	q, client := newTestQueue("esp/")
	b := NewBridge(q, nil)
	done := make(chan struct{})
	go func() {
		for n := 0; n < DefaultBacklog*2; n++ {
			b.HandleMessage(context.Background(), framing.Decode([]byte("flood")))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleMessage blocked without a running bridge")
	}
	require.Empty(t, client.publishedMessages())
}

func TestBridgeForwardsCommands(t *testing.T) {
	q, client := newTestQueue("esp/")
	var lock sync.Mutex
	var sent []string
	b := NewBridge(q, senderFunc(func(cmd string) error {
		lock.Lock()
		defer lock.Unlock()
		sent = append(sent, cmd)
		return nil
	}))

	require.NoError(t, b.Connect())
	require.True(t, client.IsConnected())
	cancel, errCh := runBridge(t, b)

	client.deliver("esp/cmd", []byte(`"GetName"`))
	lock.Lock()
	require.Equal(t, []string{`"GetName"`}, sent)
	lock.Unlock()
	require.Equal(t, []string{"esp/cmd"}, client.subscribed)

	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("bridge not stopped")
	}
	require.False(t, client.IsConnected())
}

func TestBridgeConnectFailure(t *testing.T) {
	q, client := newTestQueue("esp/")
	errRefused := errors.New("connection refused")
	client.connectErr = errRefused
	b := NewBridge(q, nil)
	var notices []string
	b.Notify = func(text string) { notices = append(notices, text) }

	require.Equal(t, errRefused, b.Connect())
	require.Equal(t, errRefused, b.Run(context.Background()))
	require.Equal(t, []string{"MQTT bridge not started: connection refused"}, notices)
}

func TestBridgeNotifiesBrokerLink(t *testing.T) {
	q, client := newTestQueue("esp/")
	b := NewBridge(q, nil)
	var notices []string
	b.Notify = func(text string) { notices = append(notices, text) }

	q.handleConnect(client)
	q.handleConnectionLost(client, errors.New("EOF"))
	require.Equal(t, []string{"MQTT connected", "MQTT connection lost: EOF"}, notices)
}
