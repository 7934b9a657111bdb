package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

type Options struct {
	Broker    string
	Port      int
	ClientID  string
	StationID string
}

type Client struct {
	client    mqtt.Client
	opts      Options
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

func NewClient(o Options, logger *slog.Logger) (*Client, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("mqtt broker not set")
	}
	c := &Client{
		opts:   o,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", o.Broker, o.Port))
	opts.SetClientID(o.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// The broker marks the station unhealthy if the device drops off.
	if will, err := json.Marshal(StationHealth{StationID: o.StationID, Healthy: false}); err == nil {
		opts.SetBinaryWill(HealthTopic(o.StationID), will, 1, true)
	}

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", o.Broker, "port", o.Port)
		go func() {
			if err := c.PublishHealth(true); err != nil {
				logger.Warn("publish health failed", "err", err)
			}
		}()
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "err", err)
	})

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// Connect starts connecting to the broker and waits for the first
// connection. It respects ctx and Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return fmt.Errorf("client stopped")
	default:
	}

	if c.IsConnected() {
		return nil
	}

	// With ConnectRetry the token completes only once a connection is made.
	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return fmt.Errorf("client stopped")
		default:
		}
	}
}

// PublishTelemetry queues t on the station topic and returns without waiting
// for the broker. Delivery failures are logged.
func (c *Client) PublishTelemetry(t Telemetry) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	t.StationID = c.opts.StationID
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	topic := TelemetryTopic(c.opts.StationID)
	token := c.client.Publish(topic, 1, false, data)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if !token.WaitTimeout(publishTimeout) {
			c.logger.Warn("publish telemetry timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			c.logger.Error("failed to publish telemetry", "topic", topic, "err", err)
			return
		}
		c.logger.Debug("published telemetry", "topic", topic, "sequence", t.Sequence)
	}()
	return nil
}

// PublishHealth publishes the retained health state of the station.
func (c *Client) PublishHealth(healthy bool) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	h := StationHealth{StationID: c.opts.StationID, LastSeen: time.Now(), Healthy: healthy}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal health: %w", err)
	}

	topic := HealthTopic(c.opts.StationID)
	token := c.client.Publish(topic, 1, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish health: %w", err)
	}
	c.logger.Debug("published station health", "topic", topic, "healthy", healthy)
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect marks the station offline and closes the connection. It is
// idempotent; afterwards Connect returns "client stopped".
func (c *Client) Disconnect() {
	first := false
	c.stopOnce.Do(func() {
		close(c.stopCh)
		first = true
	})
	if !first {
		return
	}

	if c.IsConnected() {
		if err := c.PublishHealth(false); err != nil {
			c.logger.Warn("publish health failed", "err", err)
		}
	}
	c.inflight.Wait()

	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
