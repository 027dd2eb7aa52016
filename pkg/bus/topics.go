package bus

// Topic names of the science camera publishers. These are fixed for
// compatibility with the consumers on the robot side and must not be made
// configurable.
const (
	// Namespace all sci cam topics resolve under.
	Namespace = "hw"

	// Warning: must keep /compressed at the end of the image topic, or else
	// visualization tooling that dispatches on the suffix cannot view it.
	ImageTopicName = "cam_sci/compressed"

	InfoTopicName = "cam_sci_info"
)

// Resolve joins a topic name under a namespace.
func Resolve(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// ImageTopic returns the fully resolved compressed image topic.
func ImageTopic() string {
	return Resolve(Namespace, ImageTopicName)
}

// InfoTopic returns the fully resolved camera info topic.
func InfoTopic() string {
	return Resolve(Namespace, InfoTopicName)
}
