package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// NoPersonResponse is what the try-on model answers when the body photo has nobody in it.
const NoPersonResponse = "NO_PERSON"

const tryOnInstruction = `Edit the first image, a full-body photo of a person, into a fashion-style head to toe commercial photo.
Keep the identity, face, body proportions and placement of the person exactly the same. Dress the person in the garments
shown in the following images. For clothing slots without a garment image keep what the person already wears.
Keep the background plain and white, the lighting soft and natural, and the aspect ratio 9:16 portrait.
If no person is detected return NO_PERSON.`

func (GoogleLLMProcessor) GenerateTryOn(ctx context.Context, personImagePath string, garmentImagePaths []string, modelName LLMModelName) (*LLMResponse, error) {
	if len(garmentImagePaths) == 0 {
		return nil, fmt.Errorf("try-on needs at least one garment image")
	}
	client, err := newGenaiClient(ctx)
	if err != nil {
		return nil, err
	}

	parts, err := uploadParts(ctx, client, append([]string{personImagePath}, garmentImagePaths...)...)
	if err != nil {
		return nil, err
	}

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 50000,
		Temperature:     floatPointer(1),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: tryOnInstruction}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generating try-on: %w", err)
	}

	response, err := toLLMResponse(result, personImagePath)
	if err != nil {
		return nil, err
	}
	if strings.Contains(response.Response, NoPersonResponse) {
		return response, fmt.Errorf("no person detected on the body photo")
	}
	if len(response.Images) == 0 {
		return response, fmt.Errorf("try-on returned no image")
	}
	return response, nil
}
