package bus

import "context"

// Headers carries per-message metadata. The AMQP client maps them onto
// message headers; MQTT has no header support, so for raw payloads only the
// body travels and headers are dropped.
type Headers map[string]interface{}

// Well-known header keys.
const (
	HeaderContentType = "content_type"
	HeaderFormat      = "format"
	HeaderStampSecs   = "stamp_secs"
	HeaderStampNsecs  = "stamp_nsecs"
	HeaderFrameID     = "frame_id"
)

const (
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeJSON        = "application/json"
)

// Handle is a registered publisher bound to a single topic.
type Handle interface {
	Publish(ctx context.Context, payload []byte, headers Headers) error
	Topic() string
}

// Client provides an abstraction over the pub/sub middleware: register a
// publisher for a topic, then fire-and-forget publish through the handle.
type Client interface {
	RegisterPublisher(topic string) (Handle, error)
	Connected() bool
	Close() error
}
