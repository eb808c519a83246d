package kie

import (
	"encoding/json"
	"net/url"
	"strings"
)

type midjourneyAdapter struct{}

type midjourneyRequest struct {
	TaskType    string   `json:"taskType"`
	Prompt      string   `json:"prompt"`
	FileURLs    []string `json:"fileUrls"`
	Speed       string   `json:"speed"`
	AspectRatio string   `json:"aspectRatio"`
}

type midjourneyRecord struct {
	TaskID         string          `json:"taskId"`
	SuccessFlag    flexInt         `json:"successFlag"`
	ResultInfoJSON json.RawMessage `json:"resultInfoJson"`
	ErrorMessage   string          `json:"errorMessage"`
}

type midjourneyResult struct {
	ResultURLs []struct {
		ResultURL string `json:"resultUrl"`
	} `json:"resultUrls"`
}

func (midjourneyAdapter) Family() Family { return FamilyMidjourney }

func (midjourneyAdapter) CreatePath() string { return "/mj/generate" }

func (midjourneyAdapter) StatusPath(taskID string) string {
	return "/mj/record-info?taskId=" + url.QueryEscape(taskID)
}

func (midjourneyAdapter) Policy() PollPolicy { return midjourneyPolicy }

func (midjourneyAdapter) BuildPayload(m Model, prompt, imageURL string, _ []string) (any, error) {
	img, err := requireImage(m, imageURL)
	if err != nil {
		return nil, err
	}
	return midjourneyRequest{
		TaskType:    "mj_img2img",
		Prompt:      prompt,
		FileURLs:    []string{img},
		Speed:       "fast",
		AspectRatio: aspectRatio,
	}, nil
}

func (midjourneyAdapter) ParseStatus(body []byte) (Status, error) {
	rec, err := decodeEnvelope[midjourneyRecord](body)
	if err != nil {
		return Status{}, err
	}
	if !rec.SuccessFlag.set {
		return Status{State: StatePending}, nil
	}
	switch numericState(rec.SuccessFlag.value) {
	case StateSuccess:
		raw, err := unwrapJSON(rec.ResultInfoJSON)
		if err != nil {
			return Status{}, transient("resultInfoJson: %v", err)
		}
		if raw == nil {
			return Status{State: StateSuccess}, nil
		}
		var res midjourneyResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return Status{}, transient("resultInfoJson: %v", err)
		}
		urls := make([]string, 0, len(res.ResultURLs))
		for _, item := range res.ResultURLs {
			if u := strings.TrimSpace(item.ResultURL); u != "" {
				urls = append(urls, u)
			}
		}
		return Status{State: StateSuccess, URLs: urls}, nil
	case StateFail:
		return Status{State: StateFail, FailureReason: rec.ErrorMessage}, nil
	default:
		return Status{State: StatePending}, nil
	}
}
