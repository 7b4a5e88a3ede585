package oxidb

import "fmt"

// Error is returned when the server answers with an error response.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oxidb: %s", e.Msg)
}
