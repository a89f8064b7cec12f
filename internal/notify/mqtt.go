package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultAlarmTopic is the topic alarm events are published to when the
// settings do not name one.
const DefaultAlarmTopic = "security/sentinel/alarm"

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// MQTTNotifier publishes alarm events to a broker, replacing the original
// site's HTTP push to its home base.
type MQTTNotifier struct {
	client paho.Client
	topic  string
}

// mqttPayload is the published JSON document.
type mqttPayload struct {
	SiteID      string   `json:"site_id"`
	EpisodeID   string   `json:"episode_id"`
	Timestamp   string   `json:"timestamp"`
	AlarmType   string   `json:"alarm_type"`
	DeviceCount int      `json:"device_count"`
	Devices     []string `json:"devices"`
}

// NewMQTTNotifier connects to the broker and returns the channel.
func NewMQTTNotifier(broker, clientID, topic string) (*MQTTNotifier, error) {
	if topic == "" {
		topic = DefaultAlarmTopic
	}

	if clientID == "" {
		clientID = "bt-sentinel"
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connect to broker %s: timeout", broker)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", broker, err)
	}

	return &MQTTNotifier{client: client, topic: topic}, nil
}

// Name identifies the channel in logs.
func (n *MQTTNotifier) Name() string {
	return "mqtt"
}

// Send publishes the alarm event as JSON. QoS 1, not retained.
func (n *MQTTNotifier) Send(_ context.Context, alert Alert) error {
	payload, err := json.Marshal(mqttPayload{
		SiteID:      alert.SiteID,
		EpisodeID:   alert.EpisodeID,
		Timestamp:   alert.At.Format(time.RFC3339),
		AlarmType:   "presence-detection",
		DeviceCount: alert.DeviceCount,
		Devices:     alert.Devices,
	})
	if err != nil {
		return fmt.Errorf("encode alarm payload: %w", err)
	}

	token := n.client.Publish(n.topic, 1, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish alarm: timeout")
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish alarm: %w", err)
	}

	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
