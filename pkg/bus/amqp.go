package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/streadway/amqp"

	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
)

// AMQPClient publishes over a RabbitMQ topic exchange. Topic paths are mapped
// onto routing keys by replacing "/" with ".".
type AMQPClient struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	amqpURL  string
}

func NewAMQPClient(amqpURL, exchange string) (*AMQPClient, error) {
	client := &AMQPClient{
		exchange: exchange,
		amqpURL:  amqpURL,
	}

	var err error
	maxRetries := 10
	for i := 0; i < maxRetries; i++ {
		err = client.connect()
		if err == nil {
			logger.Log.Infow("Connected to RabbitMQ", "exchange", exchange)
			return client, nil
		}
		logger.Log.Warnw("RabbitMQ connection attempt failed, retrying in 5s",
			"attempt", i+1,
			"max_attempts", maxRetries,
			"error", err)
		time.Sleep(5 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func (c *AMQPClient) connect() error {
	conn, err := amqp.Dial(c.amqpURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		c.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	c.conn = conn
	c.channel = ch
	return nil
}

func (c *AMQPClient) RegisterPublisher(topic string) (Handle, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}
	return &amqpHandle{
		client:     c,
		topic:      topic,
		routingKey: topicToRoutingKey(topic),
	}, nil
}

func (c *AMQPClient) Connected() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

func (c *AMQPClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type amqpHandle struct {
	client     *AMQPClient
	topic      string
	routingKey string
}

func (h *amqpHandle) Publish(ctx context.Context, payload []byte, headers Headers) error {
	contentType, table := splitHeaders(headers)

	err := h.client.channel.Publish(
		h.client.exchange,
		h.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: contentType,
			Headers:     table,
			Body:        payload,
			Timestamp:   time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", h.topic, err)
	}
	return nil
}

func (h *amqpHandle) Topic() string {
	return h.topic
}

func topicToRoutingKey(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

// splitHeaders extracts the content type and converts the rest into an AMQP
// header table.
func splitHeaders(headers Headers) (string, amqp.Table) {
	contentType := ContentTypeOctetStream
	table := amqp.Table{}
	for k, v := range headers {
		if k == HeaderContentType {
			if s, ok := v.(string); ok {
				contentType = s
			}
			continue
		}
		table[k] = v
	}
	return contentType, table
}
