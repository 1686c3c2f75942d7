package events

const (
	TopicRadvdLifecycle = "radvsup:events:radvd:lifecycle"
	TopicConfigApplied  = "radvsup:events:config:applied"
)
