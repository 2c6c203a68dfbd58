package render

import "github.com/trebuchet-org/socket-deployer/internal/usecase"

// Renderer writes a use case result to the terminal.
type Renderer[T any] interface {
	Render(result T) error
}

var (
	_ Renderer[*usecase.RunResult]    = (*RunRenderer)(nil)
	_ Renderer[*usecase.StatusResult] = (*StatusRenderer)(nil)
)
