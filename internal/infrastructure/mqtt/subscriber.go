// Package mqtt ingests space sensor telemetry from an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Message results reported to the observer
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// EnvironmentPayload is the JSON body published by space sensors on
// {prefix}/{company}/spaces/{space}/environment
type EnvironmentPayload struct {
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	CO2Level    *float64   `json:"co2_level"`
	NoiseLevel  *float64   `json:"noise_level"`
	AirQuality  *float64   `json:"air_quality"`
	Occupancy   *int       `json:"occupancy,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// Validate checks that every environment field is present and physically plausible
func (p *EnvironmentPayload) Validate() error {
	checks := []struct {
		name   string
		value  *float64
		lo, hi float64
	}{
		{"temperature", p.Temperature, -40, 80},
		{"humidity", p.Humidity, 0, 100},
		{"co2_level", p.CO2Level, 0, 10000},
		{"noise_level", p.NoiseLevel, 0, 200},
		{"air_quality", p.AirQuality, 0, 100},
	}
	for _, c := range checks {
		if c.value == nil {
			return fmt.Errorf("%s is required", c.name)
		}
		if *c.value < c.lo || *c.value > c.hi {
			return fmt.Errorf("%s %.2f out of range [%g, %g]", c.name, *c.value, c.lo, c.hi)
		}
	}
	if p.Occupancy != nil && *p.Occupancy < 0 {
		return errors.New("occupancy cannot be negative")
	}
	return nil
}

// Environment converts the payload; now is used when the sensor sent no timestamp
func (p *EnvironmentPayload) Environment(now time.Time) workspace.Environment {
	at := now
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		at = p.Timestamp.UTC()
	}
	return workspace.Environment{
		Temperature: *p.Temperature,
		Humidity:    *p.Humidity,
		CO2Level:    *p.CO2Level,
		NoiseLevel:  *p.NoiseLevel,
		AirQuality:  *p.AirQuality,
		MeasuredAt:  at,
	}
}

// ParseTopic extracts the company and space ids from an environment topic
func ParseTopic(prefix, topic string) (companyID, spaceID string, ok bool) {
	rest, found := strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[1] != "spaces" || parts[3] != "environment" {
		return "", "", false
	}
	if parts[0] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[0], parts[2], true
}

// TopicFilter returns the wildcard subscription for all companies and spaces
func TopicFilter(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/+/spaces/+/environment"
}

// Subscriber applies sensor messages to the stored spaces
type Subscriber struct {
	client  paho.Client
	spaces  workspace.SpaceRepository
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	observer func(result string)
}

// NewSubscriber wires a subscriber to an existing client
func NewSubscriber(client paho.Client, spaces workspace.SpaceRepository, prefix string, qos byte, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		client:  client,
		spaces:  spaces,
		prefix:  prefix,
		qos:     qos,
		timeout: 5 * time.Second,
		logger:  logger.Named("mqtt"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetObserver registers a callback invoked with the result of every message
func (s *Subscriber) SetObserver(fn func(result string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

func (s *Subscriber) observe(result string) {
	s.mu.Lock()
	fn := s.observer
	s.mu.Unlock()
	if fn != nil {
		fn(result)
	}
}

// Subscribe registers the environment topic filter on the broker
func (s *Subscriber) Subscribe() error {
	filter := TopicFilter(s.prefix)
	token := s.client.Subscribe(filter, s.qos, s.HandleMessage)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("subscribe to %s timed out", filter)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", filter, err)
	}
	s.logger.Info("Subscribed to sensor topic", zap.String("topic", filter), zap.Uint8("qos", s.qos))
	return nil
}

// HandleMessage is the paho callback for environment messages
func (s *Subscriber) HandleMessage(_ paho.Client, msg paho.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.observe(s.apply(ctx, msg.Topic(), msg.Payload()))
}

func (s *Subscriber) apply(ctx context.Context, topic string, payload []byte) string {
	companyID, spaceID, ok := ParseTopic(s.prefix, topic)
	if !ok {
		s.logger.Warn("Dropping message on unexpected topic", zap.String("topic", topic))
		return ResultRejected
	}

	var p EnvironmentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("Dropping malformed sensor payload", zap.String("topic", topic), zap.Error(err))
		return ResultRejected
	}
	if err := p.Validate(); err != nil {
		s.logger.Warn("Dropping invalid sensor payload", zap.String("topic", topic), zap.Error(err))
		return ResultRejected
	}

	space, err := s.spaces.FindByID(ctx, companyID, spaceID)
	if err != nil {
		s.logger.Warn("Sensor message for unknown space",
			zap.String("company_id", companyID),
			zap.String("space_id", spaceID),
			zap.Error(err),
		)
		return ResultRejected
	}

	space.UpdateEnvironment(p.Environment(s.now()))
	if p.Occupancy != nil {
		space.SetOccupancy(*p.Occupancy)
	}
	if err := s.spaces.Save(ctx, space); err != nil {
		s.logger.Error("Failed to store sensor reading",
			zap.String("space_id", spaceID),
			zap.Error(err),
		)
		return ResultFailed
	}
	s.logger.Debug("Sensor reading applied",
		zap.String("company_id", companyID),
		zap.String("space_id", spaceID),
	)
	return ResultApplied
}

// Close unsubscribes and disconnects, waiting up to 250ms for in-flight work
func (s *Subscriber) Close() {
	if s.client.IsConnected() {
		s.client.Unsubscribe(TopicFilter(s.prefix)).WaitTimeout(s.timeout)
	}
	s.client.Disconnect(250)
	s.logger.Info("MQTT subscriber closed")
}

// NewClient connects to the broker described by cfg. onConnect runs after
// every (re)connect so that subscriptions survive broker restarts.
func NewClient(cfg config.MQTTConfig, onConnect func(), logger *zap.Logger) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetKeepAlive(cfg.KeepAlive).
		SetPingTimeout(10 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			logger.Info("MQTT connection established", zap.String("broker", cfg.Broker))
			if onConnect != nil {
				onConnect()
			}
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("MQTT connection lost", zap.Error(err))
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("connect to MQTT broker %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return client, nil
}
