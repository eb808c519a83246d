package kie

import (
	"net/url"
)

type kontextAdapter struct{}

type kontextRequest struct {
	Prompt            string `json:"prompt"`
	InputImage        string `json:"inputImage"`
	AspectRatio       string `json:"aspectRatio"`
	OutputFormat      string `json:"outputFormat"`
	Model             string `json:"model"`
	EnableTranslation bool   `json:"enableTranslation"`
	SafetyTolerance   int    `json:"safetyTolerance"`
}

type kontextRecord struct {
	TaskID      string  `json:"taskId"`
	SuccessFlag flexInt `json:"successFlag"`
	State       flexInt `json:"state"`
	Response    *struct {
		ResultImageURL string `json:"resultImageUrl"`
	} `json:"response"`
	ResultImageURL string `json:"resultImageUrl"`
	ErrorMessage   string `json:"errorMessage"`
	FailMsg        string `json:"failMsg"`
}

func (kontextAdapter) Family() Family { return FamilyKontext }

func (kontextAdapter) CreatePath() string { return "/flux/kontext/generate" }

func (kontextAdapter) StatusPath(taskID string) string {
	return "/flux/kontext/record-info?taskId=" + url.QueryEscape(taskID)
}

func (kontextAdapter) Policy() PollPolicy { return standardPolicy }

func (kontextAdapter) BuildPayload(m Model, prompt, imageURL string, _ []string) (any, error) {
	img, err := requireImage(m, imageURL)
	if err != nil {
		return nil, err
	}
	return kontextRequest{
		Prompt:            prompt,
		InputImage:        img,
		AspectRatio:       aspectRatio,
		OutputFormat:      "png",
		Model:             m.Key,
		EnableTranslation: true,
		SafetyTolerance:   2,
	}, nil
}

func (kontextAdapter) ParseStatus(body []byte) (Status, error) {
	rec, err := decodeEnvelope[kontextRecord](body)
	if err != nil {
		return Status{}, err
	}
	flag := rec.SuccessFlag
	if rec.State.set {
		flag = rec.State
	}
	if !flag.set {
		return Status{State: StatePending}, nil
	}
	switch numericState(flag.value) {
	case StateSuccess:
		resultURL := rec.ResultImageURL
		if rec.Response != nil {
			resultURL = firstNonEmpty(rec.Response.ResultImageURL, resultURL)
		}
		if resultURL == "" {
			return Status{State: StateSuccess}, nil
		}
		return Status{State: StateSuccess, URLs: []string{resultURL}}, nil
	case StateFail:
		return Status{State: StateFail, FailureReason: firstNonEmpty(rec.ErrorMessage, rec.FailMsg)}, nil
	default:
		return Status{State: StatePending}, nil
	}
}
