package chat

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedReply = errors.New("malformed model reply")

// Reply is the structured completion result: the answer body plus follow-up
// options the user might pick next.
type Reply struct {
	Body    string   `json:"body"`
	Options []string `json:"options"`
}

// Validate enforces the expected shape of a model reply before it is used:
// a non-empty body and a list of non-empty option strings. The option count
// is advisory (the prompt asks for four) and deliberately not enforced.
func (r Reply) Validate() error {
	if strings.TrimSpace(r.Body) == "" {
		return fmt.Errorf("%w: empty body", ErrMalformedReply)
	}
	for i, opt := range r.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: empty option at index %d", ErrMalformedReply, i)
		}
	}
	return nil
}
