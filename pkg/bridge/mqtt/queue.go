// Package mqtt bridges a terminal session to an MQTT broker.
package mqtt

import (
	"net/url"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Handler is the callback when a message is received.
// topic is relative to the queue prefix.
type Handler func(topic string, payload []byte)

// Queue wraps MQTT client with topic prefix and local dispatching.
// Several local handlers may share one broker subscription.
type Queue struct {
	Client      paho.Client
	TopicPrefix string

	// OnConnect and OnConnectionLost observe the broker link.
	OnConnect        func()
	OnConnectionLost func(error)

	subsLock sync.RWMutex
	subs     map[string][]*Subscription
}

// Subscription is a local handler of a topic filter.
type Subscription struct {
	Token paho.Token
	Topic string

	queue   *Queue
	handler Handler
}

// MatchTopic matches topic with a filter which may contain + and #.
func MatchTopic(topic, pattern string) bool {
	levels, filters := strings.Split(topic, "/"), strings.Split(pattern, "/")
	for i, filter := range filters {
		if filter == "#" && i+1 == len(filters) {
			return true
		}
		if i >= len(levels) {
			return false
		}
		if filter != "+" && filter != levels[i] {
			return false
		}
	}
	return len(filters) == len(levels)
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The path of the URL is the topic prefix.
// Without a client-id query parameter, DefaultClientID is used.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	clientID := u.Query().Get("client-id")
	if clientID == "" {
		clientID = DefaultClientID()
	}
	opts.SetClientID(clientID)

	return opts, strings.TrimPrefix(u.Path, "/"), nil
}

// NewQueue creates Queue.
func NewQueue(options *paho.ClientOptions, topicPrefix string) *Queue {
	q := &Queue{TopicPrefix: topicPrefix}
	options.SetOnConnectHandler(q.handleConnect)
	options.SetConnectionLostHandler(q.handleConnectionLost)
	q.Client = paho.NewClient(options)
	return q
}

// NewQueueFromURL creates Queue from URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewQueue(opts, topicPrefix), nil
}

// Connect connects the client.
func (q *Queue) Connect() paho.Token {
	return q.Client.Connect()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(250)
	return nil
}

// Sub subscribes a topic filter relative to the prefix.
// The broker subscription is made by the first local handler only.
func (q *Queue) Sub(topic string, handler Handler) *Subscription {
	sub := &Subscription{Topic: topic, queue: q, handler: handler}
	q.subsLock.Lock()
	if q.subs == nil {
		q.subs = make(map[string][]*Subscription)
	}
	first := len(q.subs[topic]) == 0
	q.subs[topic] = append(q.subs[topic], sub)
	q.subsLock.Unlock()

	if first {
		glog.V(2).Infof("SUB %q", q.TopicPrefix+topic)
		sub.Token = q.Client.Subscribe(q.TopicPrefix+topic, 0, q.dispatch)
	} else {
		sub.Token = &paho.DummyToken{}
	}
	return sub
}

// Pub publishes to a topic relative to the prefix.
func (q *Queue) Pub(topic string, payload []byte) paho.Token {
	return q.Client.Publish(q.TopicPrefix+topic, 0, false, payload)
}

// Resubscribe subscribes all topic filters again after a reconnect.
func (q *Queue) Resubscribe() paho.Token {
	filters := make(map[string]byte)
	q.subsLock.RLock()
	for topic := range q.subs {
		filters[q.TopicPrefix+topic] = 0
	}
	q.subsLock.RUnlock()
	if len(filters) == 0 {
		return &paho.DummyToken{}
	}
	return q.Client.SubscribeMultiple(filters, q.dispatch)
}

func (q *Queue) handleConnect(paho.Client) {
	glog.Info("mqtt connected")
	q.Resubscribe()
	if fn := q.OnConnect; fn != nil {
		fn()
	}
}

func (q *Queue) handleConnectionLost(_ paho.Client, err error) {
	glog.Warningf("mqtt connection lost: %v", err)
	if fn := q.OnConnectionLost; fn != nil {
		fn(err)
	}
}

func (q *Queue) dispatch(_ paho.Client, msg paho.Message) {
	topic := msg.Topic()
	if !strings.HasPrefix(topic, q.TopicPrefix) {
		return
	}
	glog.V(2).Infof("RCV %q", topic)
	topic = topic[len(q.TopicPrefix):]
	var handlers []Handler
	q.subsLock.RLock()
	for filter, subs := range q.subs {
		if !MatchTopic(topic, filter) {
			continue
		}
		for _, sub := range subs {
			handlers = append(handlers, sub.handler)
		}
	}
	q.subsLock.RUnlock()
	payload := msg.Payload()
	for _, h := range handlers {
		h(topic, payload)
	}
}

// Close removes the handler, and unsubscribes from the broker when it was
// the last one of the topic filter.
func (s *Subscription) Close() error {
	q := s.queue
	q.subsLock.Lock()
	subs, found := q.subs[s.Topic], false
	for n, sub := range subs {
		if sub == s {
			subs, found = append(subs[:n:n], subs[n+1:]...), true
			break
		}
	}
	if !found {
		q.subsLock.Unlock()
		return nil
	}
	last := len(subs) == 0
	if last {
		delete(q.subs, s.Topic)
	} else {
		q.subs[s.Topic] = subs
	}
	q.subsLock.Unlock()
	if !last {
		return nil
	}
	glog.V(2).Infof("UNSUB %q", s.Topic)
	token := q.Client.Unsubscribe(q.TopicPrefix + s.Topic)
	token.Wait()
	return token.Error()
}
