// Package llm talks to the text generation backends used for narrative
// reports: an OpenAI compatible completions endpoint and the Fabric CLI.
package llm

//go:generate mockgen -destination=mocks/mock_generator.go -package=mocks . Generator

import "context"

// Backend names used in errors and logs.
const (
	BackendOpenAI = "openai"
	BackendFabric = "fabric"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
