package kie

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bardoun7894/basplast/internal/domain"
)

// TaskState is the normalized upstream task state.
type TaskState string

const (
	StatePending TaskState = "pending"
	StateSuccess TaskState = "success"
	StateFail    TaskState = "fail"
)

// Status is one normalized poll observation.
type Status struct {
	State         TaskState
	URLs          []string
	FailureReason string
}

// PollPolicy bounds the polling loop for a family.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Adapter translates between one family's wire protocol and the normalized
// task contract. Implementations are stateless.
type Adapter interface {
	Family() Family
	// BuildPayload returns the JSON body for task creation.
	BuildPayload(m Model, prompt, imageURL string, aux []string) (any, error)
	CreatePath() string
	StatusPath(taskID string) string
	// ParseStatus errors wrap domain.ErrProviderTransient when the body does
	// not have the expected structure.
	ParseStatus(body []byte) (Status, error)
	Policy() PollPolicy
}

const aspectRatio = "3:4"

var (
	standardPolicy   = PollPolicy{Interval: 2 * time.Second, MaxAttempts: 60}
	midjourneyPolicy = PollPolicy{Interval: 3 * time.Second, MaxAttempts: 90}
)

// NewAdapters returns one adapter per family. resolution is the jobs API
// quality tier.
func NewAdapters(resolution string) map[Family]Adapter {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		resolution = "1K"
	}
	return map[Family]Adapter{
		FamilyJobs:       jobsAdapter{resolution: resolution},
		FamilyKontext:    kontextAdapter{},
		FamilyMidjourney: midjourneyAdapter{},
	}
}

type envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *T     `json:"data"`
}

type createData struct {
	TaskID string `json:"taskId"`
}

func requireImage(m Model, imageURL string) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", fmt.Errorf("kie: %s: %w", m.Key, domain.ErrMissingReferenceImage)
	}
	return imageURL, nil
}

func transient(format string, args ...any) error {
	return fmt.Errorf("kie: %s: %w", fmt.Sprintf(format, args...), domain.ErrProviderTransient)
}

func decodeEnvelope[T any](body []byte) (*T, error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, transient("decode status: %v", err)
	}
	if env.Data == nil {
		return nil, transient("status without data (code=%d msg=%q)", env.Code, env.Msg)
	}
	return env.Data, nil
}

var errUnexpectedShape = errors.New("unexpected result shape")

// unwrapJSON decodes an embedded result once and decodes it a second time only
// when the first pass yields a string. The final value must be an object;
// null or absent means no result.
func unwrapJSON(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, err
		}
		trimmed = bytes.TrimSpace([]byte(inner))
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil, nil
		}
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, errUnexpectedShape
	}
	return trimmed, nil
}

// flexInt accepts a JSON number or a numeric string.
type flexInt struct {
	set   bool
	value int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		f.set, f.value = true, n
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	f.set, f.value = true, int(n)
	return nil
}

// numericState maps the 1 / 2,3 / other convention shared by the image
// editing and art platform APIs.
func numericState(code int) TaskState {
	switch code {
	case 1:
		return StateSuccess
	case 2, 3:
		return StateFail
	default:
		return StatePending
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
