// Package mqtt publishes report lines to an MQTT broker.
package mqtt

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds connect and publish acknowledgements.
	DefaultTimeout = 5 * time.Second
	// ClientIDPrefix prefixes generated client ids.
	ClientIDPrefix = "rtlab-"
)

var ErrTimeout = errors.New("mqtt: timed out waiting for broker")

// Publisher is the part of mqtt.Client the Writer uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Options configures Dial.
type Options struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	Timeout  time.Duration
}

// Writer is an io.Writer that publishes every Write as one message.
type Writer struct {
	client  Publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// Dial connects to the broker and returns a Writer publishing to opts.Topic.
func Dial(opts Options) (*Writer, error) {
	if opts.ClientID == "" {
		opts.ClientID = ClientIDPrefix + uuid.NewString()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(opts.Timeout)
	client := mqtt.NewClient(co)

	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Broker, err)
	}

	return NewWriter(client, opts.Topic, opts.QoS, opts.Timeout), nil
}

// NewWriter wraps an already connected client.
func NewWriter(client Publisher, topic string, qos byte, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Writer{
		client:  client,
		topic:   topic,
		qos:     qos,
		timeout: timeout,
	}
}

// Write publishes p. The payload is copied since callers reuse their buffers.
func (w *Writer) Write(p []byte) (int, error) {
	payload := make([]byte, len(p))
	copy(payload, p)

	token := w.client.Publish(w.topic, w.qos, false, payload)
	if !token.WaitTimeout(w.timeout) {
		return 0, fmt.Errorf("failed to publish to %s: %w", w.topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", w.topic, err)
	}
	return len(p), nil
}

// Close disconnects from the broker.
func (w *Writer) Close() error {
	w.client.Disconnect(250)
	return nil
}
