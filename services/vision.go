package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

// GarmentClassification is what the vision model reports for one garment photo.
type GarmentClassification struct {
	Category string `json:"category"`
	ColorHex string `json:"color_hex"`
	Material string `json:"material"`
	Name     string `json:"name"`
}

var garmentClassificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category":  {Type: genai.TypeString, Description: "One of Top, Bottom, Dress, Layer, Shoes, Accessory"},
		"color_hex": {Type: genai.TypeString, Description: "Dominant color of the garment as #RRGGBB"},
		"material":  {Type: genai.TypeString, Description: "Most likely fabric, for example Cotton or Denim"},
		"name":      {Type: genai.TypeString, Description: "Short product style name, at most four words"},
	},
	Required: []string{"category", "color_hex", "name"},
}

const garmentClassificationPrompt = `You are a fashion cataloguer. Look at the single garment in the photo and describe it.
Return the garment category, its dominant color as a #RRGGBB hex code, the most likely material and a short name
such as "Blue Denim Jacket". Ignore the background, hangers and any person wearing the garment.`

func (GoogleLLMProcessor) ClassifyGarment(ctx context.Context, imagePath string, modelName LLMModelName) (*GarmentClassification, *LLMResponse, error) {
	client, err := newGenaiClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	parts, err := uploadParts(ctx, client, imagePath)
	if err != nil {
		return nil, nil, err
	}
	parts = append(parts, &genai.Part{Text: garmentClassificationPrompt})

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		Temperature:      floatPointer(0.2),
		MaxOutputTokens:  2048,
		ResponseMIMEType: "application/json",
		ResponseSchema:   garmentClassificationSchema,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("classifying garment: %w", err)
	}

	response, err := toLLMResponse(result, imagePath)
	if err != nil {
		return nil, nil, err
	}
	classification, err := ParseGarmentClassification(response.Response)
	if err != nil {
		log.Println("[Vision] Unparseable classifier output:", response.Response)
		return nil, response, err
	}
	return classification, response, nil
}

// ParseGarmentClassification reads the JSON answer, tolerating a markdown fence around it.
func ParseGarmentClassification(text string) (*GarmentClassification, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, fmt.Errorf("empty classifier response")
	}

	var classification GarmentClassification
	if err := json.Unmarshal([]byte(cleaned), &classification); err != nil {
		return nil, fmt.Errorf("decoding classifier response: %w", err)
	}
	return &classification, nil
}
