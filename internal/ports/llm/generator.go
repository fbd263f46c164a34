package llm

import "context"

// Request es un pedido de generación de texto.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
}

// Generator genera texto (se espera JSON; el caller valida).
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
