package bus

import "encoding/json"

// CompressedImage is the outbound image message. The JPEG bytes travel as the
// raw payload; the remaining fields travel as message headers so consumers can
// route without decoding the body.
type CompressedImage struct {
	Format     string `json:"format"`
	StampSecs  int32  `json:"stamp_secs"`
	StampNsecs int32  `json:"stamp_nsecs"`
	FrameID    string `json:"frame_id"`
	Data       []byte `json:"-"`
}

// Headers returns the message metadata to attach alongside the payload.
func (m *CompressedImage) Headers() Headers {
	return Headers{
		HeaderContentType: ContentTypeOctetStream,
		HeaderFormat:      m.Format,
		HeaderStampSecs:   m.StampSecs,
		HeaderStampNsecs:  m.StampNsecs,
		HeaderFrameID:     m.FrameID,
	}
}

// CameraInfo is the outbound metadata message paired with each image. Width
// and height report the configured publish resolution.
type CameraInfo struct {
	StampSecs  int32  `json:"stamp_secs"`
	StampNsecs int32  `json:"stamp_nsecs"`
	FrameID    string `json:"frame_id"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// Marshal serializes the camera info as its JSON wire form.
func (m *CameraInfo) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Headers returns the metadata headers for the info message.
func (m *CameraInfo) Headers() Headers {
	return Headers{
		HeaderContentType: ContentTypeJSON,
		HeaderStampSecs:   m.StampSecs,
		HeaderStampNsecs:  m.StampNsecs,
		HeaderFrameID:     m.FrameID,
	}
}
