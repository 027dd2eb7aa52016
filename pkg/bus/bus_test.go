package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicNames(t *testing.T) {
	// These are wire-compatibility constants; viewers dispatch on the
	// /compressed suffix of the image topic.
	assert.Equal(t, "hw/cam_sci/compressed", ImageTopic())
	assert.Equal(t, "hw/cam_sci_info", InfoTopic())
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "hw/cam_sci_info", Resolve("hw", "cam_sci_info"))
	assert.Equal(t, "cam_sci_info", Resolve("", "cam_sci_info"))
}

func TestTopicToRoutingKey(t *testing.T) {
	assert.Equal(t, "hw.cam_sci.compressed", topicToRoutingKey("hw/cam_sci/compressed"))
	assert.Equal(t, "hw.cam_sci_info", topicToRoutingKey("hw/cam_sci_info"))
}

func TestSplitHeaders(t *testing.T) {
	contentType, table := splitHeaders(Headers{
		HeaderContentType: ContentTypeOctetStream,
		HeaderFormat:      "jpeg",
		HeaderFrameID:     "sci_camera",
	})

	assert.Equal(t, ContentTypeOctetStream, contentType)
	assert.Equal(t, "jpeg", table[HeaderFormat])
	assert.Equal(t, "sci_camera", table[HeaderFrameID])
	assert.NotContains(t, table, HeaderContentType)
}

func TestSplitHeadersDefaultsContentType(t *testing.T) {
	contentType, _ := splitHeaders(Headers{HeaderFormat: "jpeg"})
	assert.Equal(t, ContentTypeOctetStream, contentType)
}

func TestCameraInfoMarshal(t *testing.T) {
	info := &CameraInfo{
		StampSecs:  1,
		StampNsecs: 500000000,
		FrameID:    "sci_camera",
		Width:      640,
		Height:     480,
	}

	body, err := info.Marshal()
	assert.NoError(t, err)

	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "sci_camera", decoded["frame_id"])
	assert.Equal(t, float64(640), decoded["width"])
	assert.Equal(t, float64(480), decoded["height"])
}

func TestCompressedImageHeaders(t *testing.T) {
	img := &CompressedImage{
		Format:     "jpeg",
		StampSecs:  10,
		StampNsecs: 0,
		FrameID:    "sci_camera",
		Data:       []byte{0xff, 0xd8},
	}

	h := img.Headers()
	assert.Equal(t, "jpeg", h[HeaderFormat])
	assert.Equal(t, "sci_camera", h[HeaderFrameID])
	assert.Equal(t, ContentTypeOctetStream, h[HeaderContentType])
}

func TestMockClientRecordsPublishes(t *testing.T) {
	mock := NewMockClient()
	handle, err := mock.RegisterPublisher("hw/cam_sci_info")
	assert.NoError(t, err)

	err = handle.Publish(context.Background(), []byte("test"), Headers{HeaderFrameID: "sci_camera"})
	assert.NoError(t, err)

	published := mock.PublishedTo("hw/cam_sci_info")
	assert.Len(t, published, 1)
	assert.Equal(t, []byte("test"), published[0].Payload)
	assert.Equal(t, "sci_camera", published[0].Headers[HeaderFrameID])
}

func TestMockClientPublishErr(t *testing.T) {
	mock := NewMockClient()
	mock.PublishErr = errors.New("broker gone")

	handle, err := mock.RegisterPublisher("hw/cam_sci/compressed")
	assert.NoError(t, err)

	err = handle.Publish(context.Background(), []byte{0xff}, nil)
	assert.Error(t, err)
	assert.Empty(t, mock.Published())
}
