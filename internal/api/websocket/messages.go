package websocket

import (
	"time"

	"github.com/KevinKickass/ModbusCore/internal/types"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Device-related messages
	MessageTypeSample          MessageType = "register_sample"
	MessageTypeDeviceConnected MessageType = "device_connected"
	MessageTypeDeviceError     MessageType = "device_error"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// DeviceEventData carries device connect/error events
type DeviceEventData struct {
	Device string `json:"device"`
	Detail string `json:"detail,omitempty"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewSampleMessage(sample types.Sample) Message {
	return NewMessage(MessageTypeSample, sample)
}

func NewDeviceConnectedMessage(device string) Message {
	return NewMessage(MessageTypeDeviceConnected, DeviceEventData{Device: device})
}

func NewDeviceErrorMessage(device, detail string) Message {
	return NewMessage(MessageTypeDeviceError, DeviceEventData{Device: device, Detail: detail})
}
