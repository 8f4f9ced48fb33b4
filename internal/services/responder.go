package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Responder produces the assistant side of the patient chat.
type Responder interface {
	Reply(ctx context.Context, text string) (string, error)
}

const fallbackReply = "I'm sorry, I couldn't process that right now. Please try again, or describe your symptoms in a bit more detail."

// SafeReply asks the responder for an answer and converts any failure into
// a user-visible fallback string. Chat must never crash on model errors.
func SafeReply(ctx context.Context, r Responder, text string) string {
	if r == nil {
		return fallbackReply
	}
	reply, err := r.Reply(ctx, text)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			log.Printf("responder: reply failed, using fallback: %v", err)
		}
		return fallbackReply
	}
	return reply
}

// geminiRequest / geminiResponse mirror the generateContent REST shapes.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

const geminiSystemPrompt = "You are a careful medical information assistant for a clinical risk screening app. " +
	"Answer briefly and clearly. Encourage the user to consult a doctor for diagnosis or treatment decisions."

// GeminiResponder answers via the Gemini generateContent endpoint.
type GeminiResponder struct {
	APIKey string
	APIURL string
	Client *http.Client
}

func NewGeminiResponder(apiKey, apiURL string) *GeminiResponder {
	return &GeminiResponder{
		APIKey: apiKey,
		APIURL: apiURL,
		Client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (g *GeminiResponder) Reply(ctx context.Context, text string) (string, error) {
	if g.APIKey == "" || g.APIURL == "" {
		return "", fmt.Errorf("gemini: not configured")
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: geminiSystemPrompt + "\n\nUser: " + text}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := g.APIURL + "?key=" + g.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}

// RuleResponder is the offline fallback: keyword rules over the message.
// Used when no API key is configured, and as the backstop behind Gemini.
type RuleResponder struct{}

var ruleReplies = []struct {
	keywords []string
	reply    string
}{
	{[]string{"chest pain", "heart", "palpitation"},
		"Chest discomfort or palpitations can have many causes. If the pain is severe, sudden, or comes with breathlessness, seek emergency care immediately. Otherwise, a heart risk screening and a doctor's review are good next steps."},
	{[]string{"sugar", "diabetes", "glucose", "thirst"},
		"Frequent thirst, urination, or fatigue can relate to blood sugar. A fasting glucose or HbA1c test will clarify things. You can also run a diabetes risk screening here and share the result with your doctor."},
	{[]string{"kidney", "urine", "swelling", "creatinine"},
		"Changes in urination, swelling, or abnormal creatinine can point to kidney issues. A kidney function panel is worth doing. The kidney risk screening here can help you decide how soon to see a nephrologist."},
	{[]string{"diet", "food", "eat"},
		"A balanced diet low in added sugar and salt helps with heart, diabetes, and kidney health alike. For a plan tailored to your reports, please consult a dietician or your doctor."},
	{[]string{"hello", "hi", "hey"},
		"Hello! I can answer general questions about heart, diabetes, and kidney health, or help you understand your screening reports. What would you like to know?"},
}

func (RuleResponder) Reply(_ context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	for _, rule := range ruleReplies {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply, nil
			}
		}
	}
	return "I can help with general questions about heart, diabetes, and kidney health. Could you tell me a bit more about your symptoms or which report you'd like explained?", nil
}

// ChainResponder tries each responder in order, settling on the first
// non-empty answer.
type ChainResponder []Responder

func (c ChainResponder) Reply(ctx context.Context, text string) (string, error) {
	var lastErr error
	for _, r := range c {
		reply, err := r.Reply(ctx, text)
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("responder: no reply produced")
}
