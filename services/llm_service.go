package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"college_pathfinder/config"
	"college_pathfinder/logger"
	"college_pathfinder/utils"
)

// Inferencer is the text-generation surface the scoring engine and insight
// generator call. Tests substitute a stub; production uses the Hugging Face
// client below.
type Inferencer interface {
	Generate(prompt string) (string, error)
}

// Hugging Face inference API request/response shapes.
type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
	Text          string `json:"text"`
}

// HFClient calls the Hugging Face hosted inference API for a fixed model.
type HFClient struct {
	apiKey  string
	modelID string
	baseURL string
	http    *http.Client
}

// NewHFClient builds the inference client from configuration. Returns nil
// when the backend is not configured; callers treat nil as "inference
// unavailable" and fall back to the rule-based paths.
func NewHFClient(cfg *config.Config) *HFClient {
	if cfg.HuggingFace.APIKey == "" || cfg.HuggingFace.ModelID == "" {
		return nil
	}
	timeout := time.Duration(cfg.HuggingFace.TimeoutSec) * time.Second
	return &HFClient{
		apiKey:  cfg.HuggingFace.APIKey,
		modelID: cfg.HuggingFace.ModelID,
		baseURL: cfg.HuggingFace.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Generate sends the prompt to the model and returns the generated text.
func (c *HFClient) Generate(prompt string) (string, error) {
	reqBody := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens: 256,
			Temperature:  0.2,
		},
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/models/" + c.modelID
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(reqJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	startTime := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	logger.Debug("Inference request finished",
		"model", c.modelID,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(startTime).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		return "", fmt.Errorf("inference request failed: %d - %s", resp.StatusCode, preview)
	}

	return parseGeneratedText(body)
}

// parseGeneratedText handles both response shapes the API emits: a list of
// generations or a single object.
func parseGeneratedText(body []byte) (string, error) {
	var asList []hfGeneration
	if err := json.Unmarshal(body, &asList); err == nil && len(asList) > 0 {
		if asList[0].GeneratedText != "" {
			return asList[0].GeneratedText, nil
		}
		return asList[0].Text, nil
	}

	var asObject hfGeneration
	if err := json.Unmarshal(body, &asObject); err == nil {
		if asObject.GeneratedText != "" {
			return asObject.GeneratedText, nil
		}
		if asObject.Text != "" {
			return asObject.Text, nil
		}
	}

	return "", fmt.Errorf("inference response carried no generated text")
}

type scorePayload struct {
	Score       any    `json:"score"`
	Explanation string `json:"explanation"`
	Reason      string `json:"reason"`
}

// InferScore asks the backend for a refined {score, explanation} pair.
// Every failure mode returns a nil score; the heuristic result stands.
// A score in [0,1] is treated as a normalized fraction and scaled to
// percent.
func InferScore(gen Inferencer, prompt string) (*float64, string) {
	if gen == nil {
		return nil, ""
	}

	generated, err := gen.Generate(prompt)
	if err != nil {
		logger.Warn("Score refinement failed", "error", err)
		return nil, ""
	}

	fragment := utils.ExtractJSONObject(generated)
	if fragment == "" {
		return nil, ""
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(fragment), &payload); err != nil {
		logger.Warn("Score refinement returned malformed JSON", "error", err)
		return nil, ""
	}

	explanation := payload.Explanation
	if explanation == "" {
		explanation = payload.Reason
	}

	score := floatFromAny(payload.Score)
	if score == nil {
		return nil, explanation
	}
	if *score >= 0.0 && *score <= 1.0 {
		*score *= 100.0
	}
	return score, explanation
}

func floatFromAny(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return &f
		}
	}
	return nil
}
