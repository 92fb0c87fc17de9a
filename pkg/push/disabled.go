package push

import (
	"context"
	"errors"
)

var ErrPushDisabled = errors.New("push delivery disabled: no credentials configured")

// Disabled is the Sender used when no push credentials are configured.
// Every send fails, so notification records end up `failed` with a clear
// reason instead of silently vanishing.
type Disabled struct{}

func NewDisabled() Disabled { return Disabled{} }

func (Disabled) Send(_ context.Context, _ []string, _, _ string, _ map[string]string) (Result, error) {
	return Result{}, ErrPushDisabled
}
