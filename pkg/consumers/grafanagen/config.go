/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package grafanagen

import (
	"errors"
	"strings"
	"time"

	"github.com/pingtower/grafana-gen/pkg/config"
	"github.com/pingtower/grafana-gen/pkg/grafana"
	"github.com/pingtower/grafana-gen/pkg/logger"
)

// Supported broker transports.
const (
	TransportAMQP = "amqp"
	TransportNATS = "nats"
)

const (
	defaultRoutingKey     = "worker.created"
	defaultReconnectDelay = 5 * time.Second
	defaultListenAddr     = ":50060"
	defaultMetricsAddr    = ":9464"
	maxPort               = 65535
)

var (
	ErrUnknownTransport        = errors.New(`transport must be "amqp" or "nats"`)
	ErrMissingRabbitMQHost     = errors.New("rabbitmq host is required")
	ErrInvalidRabbitMQPort     = errors.New("rabbitmq port must be between 1 and 65535")
	ErrMissingRabbitMQExchange = errors.New("rabbitmq exchange is required")
	ErrMissingRabbitMQQueue    = errors.New("rabbitmq queue is required")
	ErrMissingRoutingKey       = errors.New("routing key is required")
	ErrMissingNATSURL          = errors.New("nats url is required")
	ErrMissingStreamName       = errors.New("nats stream name is required")
	ErrMissingConsumerName     = errors.New("nats consumer name is required")
	ErrMissingSubject          = errors.New("nats subject is required")
	ErrMissingGrafanaURL       = errors.New("grafana url is required")
	ErrInvalidGrafanaTimeout   = errors.New("grafana timeout must be positive")
	ErrNegativeMaxDeliveries   = errors.New("max deliveries must not be negative")
	ErrInvalidReconnectDelay   = errors.New("reconnect delay must be positive")
)

// RabbitMQConfig locates the queue worker-created events are consumed from.
type RabbitMQConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	VHost           string `json:"vhost"`
	User            string `json:"user"`
	Password        string `json:"password"`
	Exchange        string `json:"exchange"`
	Queue           string `json:"queue"`
	RoutingKey      string `json:"routing_key"`
	DeclareExchange bool   `json:"declare_exchange"`
}

// NATSConfig locates the JetStream stream used when Transport is "nats".
type NATSConfig struct {
	URL          string `json:"url"`
	Domain       string `json:"domain"`
	StreamName   string `json:"stream_name"`
	ConsumerName string `json:"consumer_name"`
	Subject      string `json:"subject"`
}

// Config is the full configuration of the dashboard generator.
type Config struct {
	Transport      string          `json:"transport"`
	RabbitMQ       RabbitMQConfig  `json:"rabbitmq"`
	NATS           NATSConfig      `json:"nats"`
	Grafana        grafana.Config  `json:"grafana"`
	MaxDeliveries  int             `json:"max_deliveries"`
	ReconnectDelay config.Duration `json:"reconnect_delay"`
	ListenAddr     string          `json:"listen_addr"`
	MetricsAddr    string          `json:"metrics_addr"`
	Logging        *logger.Config  `json:"logging"`
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportAMQP,
		RabbitMQ: RabbitMQConfig{
			Host:       "localhost",
			Port:       5672,
			VHost:      "/",
			User:       "admin",
			Password:   "admin",
			Exchange:   "pingtower.events",
			Queue:      defaultRoutingKey,
			RoutingKey: defaultRoutingKey,
		},
		NATS: NATSConfig{
			URL:          "nats://localhost:4222",
			StreamName:   "PINGTOWER_EVENTS",
			ConsumerName: "grafana-gen",
			Subject:      defaultRoutingKey,
		},
		Grafana: grafana.Config{
			URL:     grafana.DefaultURL,
			APIKey:  grafana.PlaceholderAPIKey,
			Timeout: config.Duration(grafana.DefaultTimeout),
		},
		ReconnectDelay: config.Duration(defaultReconnectDelay),
		ListenAddr:     defaultListenAddr,
		MetricsAddr:    defaultMetricsAddr,
		Logging:        logger.DefaultConfig(),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Transport) {
	case TransportAMQP:
		errs = append(errs, c.RabbitMQ.validate()...)
	case TransportNATS:
		errs = append(errs, c.NATS.validate()...)
	default:
		errs = append(errs, ErrUnknownTransport)
	}

	if strings.TrimSpace(c.Grafana.URL) == "" {
		errs = append(errs, ErrMissingGrafanaURL)
	}

	if c.Grafana.Timeout <= 0 {
		errs = append(errs, ErrInvalidGrafanaTimeout)
	}

	if c.MaxDeliveries < 0 {
		errs = append(errs, ErrNegativeMaxDeliveries)
	}

	if c.ReconnectDelay <= 0 {
		errs = append(errs, ErrInvalidReconnectDelay)
	}

	return errors.Join(errs...)
}

func (c *RabbitMQConfig) validate() []error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, ErrMissingRabbitMQHost)
	}

	if c.Port <= 0 || c.Port > maxPort {
		errs = append(errs, ErrInvalidRabbitMQPort)
	}

	if c.Exchange == "" {
		errs = append(errs, ErrMissingRabbitMQExchange)
	}

	if c.Queue == "" {
		errs = append(errs, ErrMissingRabbitMQQueue)
	}

	if c.RoutingKey == "" {
		errs = append(errs, ErrMissingRoutingKey)
	}

	return errs
}

func (c *NATSConfig) validate() []error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, ErrMissingNATSURL)
	}

	if c.StreamName == "" {
		errs = append(errs, ErrMissingStreamName)
	}

	if c.ConsumerName == "" {
		errs = append(errs, ErrMissingConsumerName)
	}

	if c.Subject == "" {
		errs = append(errs, ErrMissingSubject)
	}

	return errs
}
