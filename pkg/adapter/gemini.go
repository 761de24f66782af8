package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// emotionAxes fixes the order of the emotional vector components. The
// emotional space is low-dimensional on purpose: each axis is one scored
// affect, so distances stay interpretable.
var emotionAxes = []string{
	"anger", "disgust", "fear", "joy", "neutral", "sadness", "surprise",
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Embed produces both the semantic and the emotional vector for text. The
// semantic vector comes from the embedding model, the emotional vector from
// a structured scoring call against the generative model.
func (g *GeminiClient) Embed(ctx context.Context, text string) (*Embedding, error) {
	semantic, err := g.embedSemantic(ctx, text)
	if err != nil {
		return nil, err
	}

	emotional, err := g.embedEmotional(ctx, text)
	if err != nil {
		return nil, err
	}

	return &Embedding{Semantic: semantic, Emotional: emotional}, nil
}

func (g *GeminiClient) embedSemantic(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("embedding response is empty")
	}
	return resp.Embeddings[0].Values, nil
}

func (g *GeminiClient) embedEmotional(ctx context.Context, text string) ([]float32, error) {
	props := make(map[string]*genai.Schema, len(emotionAxes))
	required := make([]string, 0, len(emotionAxes))
	for _, axis := range emotionAxes {
		props[axis] = &genai.Schema{
			Type:        genai.TypeNumber,
			Description: "score in [0,1] for " + axis,
		}
		required = append(required, axis)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			"Score the emotional tone of the given text. Return a score in [0,1] for each emotion.",
			genai.RoleUser,
		),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   required,
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, genai.Text(text), config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to score emotional tone")
	}

	return ParseEmotionScores(resp.Text())
}

// ParseEmotionScores decodes a JSON object of per-emotion scores into a
// vector ordered by emotionAxes. Missing axes default to zero.
func ParseEmotionScores(raw string) ([]float32, error) {
	var scores map[string]float64
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, goerr.Wrap(err, "failed to parse emotion scores", goerr.V("raw", raw))
	}

	vec := make([]float32, len(emotionAxes))
	for i, axis := range emotionAxes {
		s := scores[axis]
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		vec[i] = float32(s)
	}
	return vec, nil
}

// Extract derives marginalia from memory content with a structured
// generation call.
func (g *GeminiClient) Extract(ctx context.Context, text string) (*model.Marginalia, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			"Extract metadata from the given memory text. Entities are proper names of people, places, projects or systems. Keywords are topical terms. Importance is in [0,1]. Summary is one sentence.",
			genai.RoleUser,
		),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"entities": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"keywords": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"importance": {Type: genai.TypeNumber},
				"summary":    {Type: genai.TypeString},
			},
			Required: []string{"entities", "keywords", "importance", "summary"},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, genai.Text(text), config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract marginalia")
	}

	marginalia, err := ParseMarginalia(resp.Text())
	if err != nil {
		return nil, err
	}
	marginalia.AnalyzedAt = time.Now().UTC()
	return marginalia, nil
}

// ParseMarginalia decodes the structured extraction response.
func ParseMarginalia(raw string) (*model.Marginalia, error) {
	var body struct {
		Entities   []string `json:"entities"`
		Keywords   []string `json:"keywords"`
		Importance float64  `json:"importance"`
		Summary    string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, goerr.Wrap(err, "failed to parse marginalia", goerr.V("raw", raw))
	}

	if body.Importance < 0 {
		body.Importance = 0
	}
	if body.Importance > 1 {
		body.Importance = 1
	}

	return &model.Marginalia{
		Entities:   body.Entities,
		Keywords:   body.Keywords,
		Importance: body.Importance,
		Summary:    body.Summary,
	}, nil
}
