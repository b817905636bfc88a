package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dronewatch/geobeacon/internal/beacon"
)

// Publisher pushes beacon snapshots and battery alerts to an MQTT broker
// so ground-station displays can subscribe instead of polling the store.
type Publisher struct {
	client mqtt.Client
	prefix string
	logger *slog.Logger
}

type snapshotMessage struct {
	Status        beacon.Status `json:"status"`
	Latitude      float64       `json:"latitude,omitempty"`
	Longitude     float64       `json:"longitude,omitempty"`
	Altitude      float64       `json:"altitude,omitempty"`
	PlusCode      string        `json:"plusCode,omitempty"`
	DistanceTotal float64       `json:"distanceTotal"`
	MaxAltitude   float64       `json:"maxAltitude"`
	MaxSpeed      float64       `json:"maxSpeed"`
	MinVoltage    float64       `json:"minCellVoltage,omitempty"`
}

type alertMessage struct {
	Voltage   float64   `json:"voltage"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPublisher connects to the broker and returns a ready publisher.
func NewPublisher(config *MQTTConfig, logger *slog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to broker %s: %w", config.Broker, token.Error())
	}

	logger.Info("connected to MQTT broker", slog.String("broker", config.Broker))

	return &Publisher{
		client: client,
		prefix: config.TopicPrefix,
		logger: logger,
	}, nil
}

// PublishSnapshot publishes the current beacon state, retained so a late
// subscriber immediately sees the last known position.
func (p *Publisher) PublishSnapshot(snap beacon.Snapshot) {
	msg := snapshotMessage{
		Status:        snap.Status,
		PlusCode:      snap.PlusCode,
		DistanceTotal: snap.DistanceTotal,
		MaxAltitude:   snap.Extremes.MaxAltitude,
		MaxSpeed:      snap.Extremes.MaxSpeed,
		MinVoltage:    snap.Extremes.MinCellVoltage,
	}
	if snap.Fix.Valid {
		msg.Latitude = snap.Fix.Latitude
		msg.Longitude = snap.Fix.Longitude
		msg.Altitude = snap.Fix.Altitude
	}

	p.publish(p.prefix+"/state", msg, true)
}

// PublishAlert publishes a low-voltage alert, not retained: alerts are
// momentary events, not state.
func (p *Publisher) PublishAlert(voltage float64, at time.Time) {
	p.publish(p.prefix+"/alerts", alertMessage{Voltage: voltage, Timestamp: at.UTC()}, false)
}

func (p *Publisher) publish(topic string, msg any, retained bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error(fmt.Sprintf("marshaling %s message: %s", topic, err.Error()))
		return
	}

	token := p.client.Publish(topic, 0, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		p.logger.Warn(fmt.Sprintf("publishing to %s: %s", topic, err.Error()))
	}
}

// Close disconnects from the broker, allowing in-flight messages to drain.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
