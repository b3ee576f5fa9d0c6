package intent

import "context"

type Prompt struct {
	System string
	User   string
}

// Oracle is the external text classifier. Implementations must honor ctx.
type Oracle interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, p Prompt) (string, error)

func (f OracleFunc) Complete(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}
