package kie

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/bardoun7894/basplast/internal/domain"
)

type jobsAdapter struct {
	resolution string
}

type jobsRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type fluxFlexInput struct {
	InputURLs   []string `json:"input_urls"`
	Prompt      string   `json:"prompt"`
	AspectRatio string   `json:"aspect_ratio"`
	Resolution  string   `json:"resolution"`
}

type nanoProInput struct {
	ImageInput   []string `json:"image_input"`
	Prompt       string   `json:"prompt"`
	AspectRatio  string   `json:"aspect_ratio"`
	Resolution   string   `json:"resolution"`
	OutputFormat string   `json:"output_format"`
}

type jobsRecord struct {
	TaskID     string          `json:"taskId"`
	State      string          `json:"state"`
	ResultJSON json.RawMessage `json:"resultJson"`
	FailMsg    string          `json:"failMsg"`
	FailCode   json.RawMessage `json:"failCode"`
}

type jobsResult struct {
	ResultURLs []string `json:"resultUrls"`
}

func (jobsAdapter) Family() Family { return FamilyJobs }

func (jobsAdapter) CreatePath() string { return "/jobs/createTask" }

func (jobsAdapter) StatusPath(taskID string) string {
	return "/jobs/recordInfo?taskId=" + url.QueryEscape(taskID)
}

func (jobsAdapter) Policy() PollPolicy { return standardPolicy }

func (a jobsAdapter) BuildPayload(m Model, prompt, imageURL string, aux []string) (any, error) {
	img, err := requireImage(m, imageURL)
	if err != nil {
		return nil, err
	}
	switch m.Key {
	case ModelFluxFlex:
		return jobsRequest{
			Model: m.Key,
			Input: fluxFlexInput{
				InputURLs:   []string{img},
				Prompt:      prompt,
				AspectRatio: aspectRatio,
				Resolution:  a.resolution,
			},
		}, nil
	case ModelNanoPro:
		if m.AmplifyOrnament {
			prompt = AmplifyOrnament(prompt)
		}
		return jobsRequest{
			Model: m.Key,
			Input: nanoProInput{
				ImageInput:   append([]string{img}, auxiliaryInputs(aux)...),
				Prompt:       prompt,
				AspectRatio:  aspectRatio,
				Resolution:   a.resolution,
				OutputFormat: "png",
			},
		}, nil
	default:
		return nil, fmt.Errorf("kie: jobs api: %q: %w", m.Key, domain.ErrUnknownModel)
	}
}

// auxiliaryInputs passes URLs through and wraps anything else as a base64 PNG data URI.
func auxiliaryInputs(aux []string) []string {
	out := make([]string, 0, len(aux))
	for _, item := range aux {
		item = strings.TrimSpace(item)
		switch {
		case item == "":
		case strings.HasPrefix(item, "http"), strings.HasPrefix(item, "data:"):
			out = append(out, item)
		default:
			out = append(out, "data:image/png;base64,"+item)
		}
	}
	return out
}

func (jobsAdapter) ParseStatus(body []byte) (Status, error) {
	rec, err := decodeEnvelope[jobsRecord](body)
	if err != nil {
		return Status{}, err
	}
	switch strings.ToLower(strings.TrimSpace(rec.State)) {
	case "success":
		raw, err := unwrapJSON(rec.ResultJSON)
		if err != nil {
			return Status{}, transient("resultJson: %v", err)
		}
		if raw == nil {
			return Status{State: StateSuccess}, nil
		}
		var res jobsResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return Status{}, transient("resultJson: %v", err)
		}
		return Status{State: StateSuccess, URLs: res.ResultURLs}, nil
	case "fail":
		return Status{State: StateFail, FailureReason: firstNonEmpty(rec.FailMsg, failCode(rec.FailCode))}, nil
	default:
		return Status{State: StatePending}, nil
	}
}

// failCode renders failCode whether it arrives as a number or a string.
func failCode(raw json.RawMessage) string {
	code := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if code == "null" {
		return ""
	}
	return code
}
