package mqtt

import (
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"bmrbridge/internal/config"
	"bmrbridge/internal/logger"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
	keepAlive         = 60 * time.Second
)

var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrPublishFailed    = errors.New("mqtt publish failed")
	ErrSubscribeFailed  = errors.New("mqtt subscribe failed")
)

// Client is a thin wrapper around paho with availability publishing.
// The broker announces "offline" on <prefix>/status via LWT if the
// bridge dies without a clean shutdown.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	log    *logger.Logger
}

// Connect builds options from cfg and establishes the broker connection.
func Connect(cfg config.MQTTConfig, log *logger.Logger) (*Client, error) {
	c := &Client{cfg: cfg, log: log}

	opts := buildClientOptions(cfg)
	opts.SetWill(c.statusTopic(), "offline", 1, true)
	opts.SetOnConnectHandler(func(pc pahomqtt.Client) {
		pc.Publish(c.statusTopic(), byte(cfg.QoS), true, "online")
		if log != nil {
			log.Infow("mqtt_connected", "broker", cfg.Broker)
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if log != nil {
			log.Warnw("mqtt_connection_lost", "err", err)
		}
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return c, nil
}

func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)
	return opts
}

func (c *Client) statusTopic() string {
	return c.cfg.TopicPrefix + "/status"
}

// Publish sends payload to topic and waits for the broker acknowledgment.
func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	token := c.client.Publish(topic, byte(c.cfg.QoS), retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout on %s", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// Subscribe registers handler for topic. Handlers run on paho goroutines
// and must not block.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := c.client.Subscribe(topic, byte(c.cfg.QoS), func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil && c.log != nil {
				c.log.Errorw("mqtt_handler_panic", "topic", msg.Topic(), "panic", r)
			}
		}()
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout on %s", ErrSubscribeFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}
	return nil
}

// Close publishes a clean offline status and disconnects.
func (c *Client) Close() {
	if c.client == nil {
		return
	}
	if c.client.IsConnected() {
		token := c.client.Publish(c.statusTopic(), byte(c.cfg.QoS), true, "offline")
		token.WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(disconnectQuiesce)
}
