package bus

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
)

// MQTTClient publishes over an MQTT broker. Topic paths are used verbatim.
// MQTT 3.1.1 carries no message headers, so only the payload travels.
type MQTTClient struct {
	client mqtt.Client
}

func NewMQTTClient(broker, clientID string) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	logger.Log.Infow("Connected to MQTT broker", "broker", broker, "client_id", clientID)
	return &MQTTClient{client: client}, nil
}

func (c *MQTTClient) RegisterPublisher(topic string) (Handle, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}
	return &mqttHandle{client: c.client, topic: topic}, nil
}

func (c *MQTTClient) Connected() bool {
	return c.client.IsConnected()
}

func (c *MQTTClient) Close() error {
	c.client.Disconnect(250)
	return nil
}

type mqttHandle struct {
	client mqtt.Client
	topic  string
}

func (h *mqttHandle) Publish(ctx context.Context, payload []byte, headers Headers) error {
	token := h.client.Publish(h.topic, 1, false, payload)
	if sent := token.Wait(); !sent {
		return fmt.Errorf("mqtt client could not send the message")
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", h.topic, token.Error())
	}
	return nil
}

func (h *mqttHandle) Topic() string {
	return h.topic
}
