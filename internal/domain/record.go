package domain

import (
	"strings"
	"time"
)

// RecordStatus enumerates generation record lifecycle states.
type RecordStatus string

const (
	RecordStatusProcessing RecordStatus = "processing"
	RecordStatusSuccess    RecordStatus = "success"
	RecordStatusFailed     RecordStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s RecordStatus) Terminal() bool {
	return s == RecordStatusSuccess || s == RecordStatusFailed
}

// RecordModelAll is stored as the model of a multi-model fan-out record.
const RecordModelAll = "ALL"

// Attributes are the free-form product attributes supplied with a request.
type Attributes struct {
	Length     string `json:"length"`
	Shape      string `json:"shape"`
	Decoration string `json:"decoration"`
	Color      string `json:"color"`
}

// Normalize trims surrounding whitespace from every attribute.
func (a Attributes) Normalize() Attributes {
	return Attributes{
		Length:     strings.TrimSpace(a.Length),
		Shape:      strings.TrimSpace(a.Shape),
		Decoration: strings.TrimSpace(a.Decoration),
		Color:      strings.TrimSpace(a.Color),
	}
}

// GenerationRecord is the durable outcome of one generation request.
// It is created in the processing state and completed exactly once.
type GenerationRecord struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Attributes
	RefImage  string       `json:"refImage"`
	Status    RecordStatus `json:"status"`
	Images    []string     `json:"images"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
