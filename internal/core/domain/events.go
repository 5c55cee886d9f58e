package domain

import "time"

// Lifecycle topics published on the event bus.
const (
	TopicCredentialsAssigned = "challenge:credentials_assigned"
	TopicContractSigned      = "challenge:contract_signed"
	TopicCredentialsReleased = "challenge:credentials_released"
	TopicPassed              = "challenge:passed"
	TopicBreached            = "challenge:breached"
	TopicUnbreached          = "challenge:unbreached"
	TopicRejected            = "challenge:rejected"
	TopicNoteSaved           = "challenge:note_saved"
	TopicEdited              = "challenge:edited"
)

// LifecycleTopics lists every topic the lifecycle service publishes.
var LifecycleTopics = []string{
	TopicCredentialsAssigned,
	TopicContractSigned,
	TopicCredentialsReleased,
	TopicPassed,
	TopicBreached,
	TopicUnbreached,
	TopicRejected,
	TopicNoteSaved,
	TopicEdited,
}

// ChallengeEvent is the payload of every lifecycle topic.
type ChallengeEvent struct {
	Topic     string
	Challenge Challenge
	Next      *Challenge // Set for TopicPassed
	Reason    string
	At        time.Time
}
