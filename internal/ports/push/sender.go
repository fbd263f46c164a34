package push

import "context"

// Message es un envío multicast: mismos título/cuerpo para varios tokens.
type Message struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// Result particiona el resultado por token.
// InvalidTokens ⊆ FailedTokens: solo los inválidos (token dado de baja
// por el proveedor) deben eliminarse de la base; un fallo transitorio no.
type Result struct {
	SuccessCount  int
	FailedTokens  []string
	InvalidTokens []string
}

// Sender envía notificaciones push.
// Un error de transporte significa "todo falló, nada inválido".
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}
