package hub

import (
	"fmt"
	"strings"
)

func TopicDeviceStates(prefix string) string {
	return fmt.Sprintf("%s/device/+/state", prefix)
}

func TopicDeviceState(prefix, entityID string) string {
	return fmt.Sprintf("%s/device/%s/state", prefix, entityID)
}

func TopicCall(prefix, requestID string) string {
	return fmt.Sprintf("%s/call/%s", prefix, requestID)
}

func TopicCallResults(prefix string) string {
	return fmt.Sprintf("%s/result/+", prefix)
}

func TopicCallResult(prefix, requestID string) string {
	return fmt.Sprintf("%s/result/%s", prefix, requestID)
}

// expected: {prefix}/device/{entityId}/state
func ParseEntityID(topic, prefix string) (string, error) {
	parts := strings.Split(topic, "/")
	prefixParts := strings.Split(prefix, "/")
	if len(parts) != len(prefixParts)+3 {
		return "", fmt.Errorf("invalid topic: %s", topic)
	}
	for i, p := range prefixParts {
		if parts[i] != p {
			return "", fmt.Errorf("topic prefix mismatch: %s", topic)
		}
	}
	if parts[len(prefixParts)] != "device" || parts[len(parts)-1] != "state" {
		return "", fmt.Errorf("invalid topic pattern: %s", topic)
	}
	return parts[len(prefixParts)+1], nil
}

func ParseRequestID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
