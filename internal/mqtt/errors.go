package mqtt

import "errors"

var (
	ErrInvalidServerURL = errors.New("invalid MQTT server URL")
	ErrNotConnected     = errors.New("MQTT client is not connected")
	ErrPublish          = errors.New("failed to publish MQTT message")
	ErrSubscribe        = errors.New("failed to subscribe to MQTT topic")
	ErrTimeout          = errors.New("timed out waiting for broker")
)
