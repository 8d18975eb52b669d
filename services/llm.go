package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"google.golang.org/genai"
)

// LLMModelName selects the Gemini model used for a call.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
	Flash25Image
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite"
	case Flash25Image:
		return "gemini-2.5-flash-image-preview"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.0-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

func Int32Pointer(i int32) *int32 {
	return &i
}

type LLMResponse struct {
	Response           string   `json:"response"`
	Images             [][]byte `json:"images,omitempty"`
	InputTokenCount    int32    `json:"input_token_count"`
	Thoughts           string   `json:"thoughts"`
	ThoughtsTokenCount int32    `json:"thoughts_token_count"`
	OutputTokenCount   int32    `json:"output_token_count"`
	TotalTokenCount    int32    `json:"total_token_count"`
	IsTest             bool     `json:"is_test"`
}

// LLMProcessor covers the vision classifier and the virtual try-on.
type LLMProcessor interface {
	ClassifyGarment(ctx context.Context, imagePath string, modelName LLMModelName) (*GarmentClassification, *LLMResponse, error)
	GenerateTryOn(ctx context.Context, personImagePath string, garmentImagePaths []string, modelName LLMModelName) (*LLMResponse, error)
}

type GoogleLLMProcessor struct{}

type ResponseWithThoughts struct {
	Thoughts string `json:"thoughts"`
	Text     string `json:"text"`
}

func newGenaiClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return client, nil
}

func tryUploadGoogleStorage(ctx context.Context, client *genai.Client, filePath string, newName *string) (*genai.File, error) {
	var genFile *genai.File
	var err error
	maxUploadTimes := 3
	for i := range maxUploadTimes {
		config := &genai.UploadFileConfig{}
		if newName != nil {
			config = &genai.UploadFileConfig{
				Name: *newName,
			}
		}

		genFile, err = client.Files.UploadFromPath(ctx, filePath, config)
		if err == nil {
			log.Println("[GenAI] File uploaded:", filePath, "Attempt:", i+1)
			return genFile, nil
		}
		log.Printf("[GenAI] Error uploading file %s, attempt %d: %v\n", filePath, i+1, err)
	}
	return nil, fmt.Errorf("failed to upload file to google storage after %d attempts: %s: %w", maxUploadTimes, filePath, err)
}

// uploadParts turns local files into file parts, empty paths are skipped.
func uploadParts(ctx context.Context, client *genai.Client, paths ...string) ([]*genai.Part, error) {
	var parts []*genai.Part
	for i, path := range paths {
		if path == "" {
			log.Println("[GenAI] File path empty in index:", i)
			continue
		}
		genFile, err := tryUploadGoogleStorage(ctx, client, path, nil)
		if err != nil {
			return nil, err
		}
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{
				FileURI:  genFile.URI,
				MIMEType: genFile.MIMEType,
			},
		})
	}
	return parts, nil
}

func GetAllInlineImages(result *genai.GenerateContentResponse) ([][]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("empty response")
	}

	var allImageData [][]byte

	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
		if cand.Content == nil || len(cand.Content.Parts) == 0 {
			continue
		}

		for _, part := range cand.Content.Parts {
			inlineData := part.InlineData
			if inlineData != nil && strings.HasPrefix(inlineData.MIMEType, "image/") && len(inlineData.Data) > 0 {
				allImageData = append(allImageData, inlineData.Data)
			}
		}
	}

	if len(allImageData) == 0 {
		return nil, nil
	}

	return allImageData, nil
}

func GetFirstCandidateTextWithThoughts(result *genai.GenerateContentResponse) (*ResponseWithThoughts, error) {
	var thinkingContent string
	for _, c := range result.Candidates {
		log.Println("[GenAI] Finish reason:", c.FinishReason, "Finish message:", c.FinishMessage)

		for _, rating := range c.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content violation: couldn't analyze the image, because it contains %s", rating.Category)
			}
		}
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part.Thought && part.Text != "" {
				thinkingContent = part.Text
			}
		}
	}
	return &ResponseWithThoughts{
		Thoughts: thinkingContent,
		Text:     result.Text(),
	}, nil
}

// toLLMResponse collects usage counters and the text and image output of a call.
func toLLMResponse(result *genai.GenerateContentResponse, subject string) (*LLMResponse, error) {
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		log.Println("[GenAI] Prompt blocked:", result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
		return nil, fmt.Errorf("content violation: %s %s", subject, result.PromptFeedback.BlockReasonMessage)
	}

	response := &LLMResponse{}
	if result.UsageMetadata != nil {
		response.InputTokenCount = result.UsageMetadata.PromptTokenCount
		response.ThoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		response.OutputTokenCount = result.UsageMetadata.CandidatesTokenCount
		response.TotalTokenCount = result.UsageMetadata.TotalTokenCount
		log.Println("[GenAI] Tokens in/out/total:", response.InputTokenCount, response.OutputTokenCount, response.TotalTokenCount)
	}

	images, err := GetAllInlineImages(result)
	if err != nil {
		return nil, fmt.Errorf("error getting candidate images: %v", err)
	}
	text, err := GetFirstCandidateTextWithThoughts(result)
	if err != nil {
		return nil, fmt.Errorf("error getting first candidate text: %v", err)
	}
	response.Images = images
	response.Response = text.Text
	response.Thoughts = text.Thoughts
	return response, nil
}
