// Package broker is the node's MQTT session.
package broker

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gr-butler/envnode/connectivity"
	"github.com/gr-butler/envnode/env"
	logger "github.com/sirupsen/logrus"
)

const (
	qos      = 0
	retained = false
)

type Client struct {
	client  mqtt.Client
	status  *connectivity.Signal
	lock    sync.Mutex
	started bool
	wait    time.Duration
}

func NewClient(cfg env.Config) *Client {
	c := &Client{
		status: connectivity.NewSignal(),
		wait:   env.PublishTimeout,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Second * 5)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Infof("Connected to MQTT broker [%v]", cfg.BrokerURL)
		c.status.Set(true)
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warnf("Connection to MQTT broker lost [%v]", err)
		c.status.Set(false)
	})
	c.client = mqtt.NewClient(opts)
	return c
}

// Connect starts the session. The client retries and reconnects by itself, so
// calls after the first do nothing.
func (c *Client) Connect() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.started {
		return
	}
	c.started = true
	logger.Info("Connecting to MQTT broker")
	token := c.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			logger.Errorf("MQTT connect failed [%v]", err)
		}
	}()
}

func (c *Client) Status() <-chan bool {
	return c.status.C()
}

// Publish sends payload at QoS 0, not retained.
func (c *Client) Publish(topic, payload string) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.wait) {
		return fmt.Errorf("publish to %s timed out after %v", topic, c.wait)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Disconnect() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.started {
		return
	}
	c.client.Disconnect(250)
	c.started = false
	c.status.Set(false)
}

// Loopback stands in for a broker in test mode. It is always connected and
// logs what would have been published.
type Loopback struct {
	status *connectivity.Signal
	lock   sync.Mutex
	sent   map[string]string
}

func NewLoopback() *Loopback {
	return &Loopback{
		status: connectivity.NewSignal(),
		sent:   map[string]string{},
	}
}

func (l *Loopback) Connect() {
	l.status.Set(true)
}

func (l *Loopback) Status() <-chan bool {
	return l.status.C()
}

func (l *Loopback) Publish(topic, payload string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	logger.Infof("TEST MODE publish [%v] [%v]", topic, payload)
	l.sent[topic] = payload
	return nil
}

// Last returns the latest payload sent to topic.
func (l *Loopback) Last(topic string) (string, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	p, ok := l.sent[topic]
	return p, ok
}

func (l *Loopback) Disconnect() {
	l.status.Set(false)
}
