// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nats wraps nats.go with the connection management the
// ground-segment bridge needs to relay OBSW events onto a mission NATS bus:
// a single outbound connection, automatic reconnection, and
// username/password or credentials-file auth. This package only publishes —
// the bridge is one-directional, process to ground, so there is no
// subscription or request/reply surface to maintain.
//
// # Usage
//
//	obswnats.Keys.Address = "nats://ground-segment:4222"
//	obswnats.Connect()
//
//	client := obswnats.GetClient()
//	client.Publish("obsw.events", []byte("hello"))
package nats

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/skyhaven-space/obsw/pkg/log"
)

var (
	clientOnce     sync.Once
	clientInstance *Client
)

// Client wraps a single outbound NATS connection, tracking reconnect count
// so main's control-plane status snapshot can report downlink bridge health
// without reaching into nats.Conn directly.
type Client struct {
	conn       *nats.Conn
	reconnects atomic.Int64
	mu         sync.Mutex
}

// Connect initializes the singleton NATS client using the global Keys config.
func Connect() {
	clientOnce.Do(func() {
		if Keys.Address == "" {
			log.Warn("NATS: no address configured, skipping connection")
			return
		}

		client, err := NewClient(nil)
		if err != nil {
			log.Warnf("NATS connection failed: %v", err)
			return
		}

		clientInstance = client
	})
}

// GetClient returns the singleton NATS client instance.
func GetClient() *Client {
	if clientInstance == nil {
		log.Warn("NATS client not initialized")
	}
	return clientInstance
}

// NewClient creates a new NATS client. If cfg is nil, uses the global Keys config.
func NewClient(cfg *NatsConfig) (*Client, error) {
	if cfg == nil {
		cfg = &Keys
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("NATS address is required")
	}

	var opts []nats.Option

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}

	c := &Client{}

	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			log.Warnf("NATS disconnected: %v", err)
		}
	}))

	opts = append(opts, nats.ReconnectHandler(func(conn *nats.Conn) {
		c.reconnects.Add(1)
		log.Infof("NATS reconnected to %s (reconnect #%d)", conn.ConnectedUrl(), c.reconnects.Load())
	}))

	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		log.Errorf("NATS error: %v", err)
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("NATS connect failed: %w", err)
	}
	c.conn = nc

	log.Infof("NATS connected to %s", cfg.Address)
	return c, nil
}

// Publish sends data to the specified subject.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("NATS publish to '%s' failed: %w", subject, err)
	}
	return nil
}

// Reconnects reports how many times the underlying connection has dropped
// and re-established since Connect — a health signal for the control
// plane's status endpoint, since the bridge has no ack from the ground
// segment beyond "the library didn't error".
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Close closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		log.Info("NATS connection closed")
	}
}

// IsConnected returns true if the client has an active connection.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
