package queue

import "encoding/json"

// MessageVersion is the current batch-completed payload version.
const MessageVersion = 1

// Message announces that a batch analysis finished and its results are exportable.
type Message struct {
	BatchID     string `json:"batchId"`
	RequestID   string `json:"requestId"`
	RecordCount int    `json:"recordCount"`
	Unreadable  int    `json:"unreadable"`
	CompletedAt string `json:"completedAt"`
	Version     int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
