package rpc

import (
	"fmt"
	"net/http"
)

// StatusError is a non-200 answer from the server
type StatusError struct {
	Op     string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: server answered %d %s", e.Op, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s: server answered %d %s: %s", e.Op, e.Code, http.StatusText(e.Code), e.Detail)
}
