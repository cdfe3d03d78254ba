// Package options resolves remote option lists for fields that declare
// additionalOptions.useDefaultValuesFrom. A Cache fronts a Source so each
// source key is fetched at most once among concurrent callers, and failures
// degrade to an empty list instead of breaking the form.
package options

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formengine/pkg/model"
)

// Source looks up the option list published under a source key.
type Source interface {
	Options(ctx context.Context, key string) (model.OptionList, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, key string) (model.OptionList, error)

// Options implements Source.
func (fn SourceFunc) Options(ctx context.Context, key string) (model.OptionList, error) {
	return fn(ctx, key)
}

// Static serves fixed lists, mostly useful for tests and offline rendering.
type Static map[string]model.OptionList

// Options implements Source.
func (s Static) Options(_ context.Context, key string) (model.OptionList, error) {
	list, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("options: source %q not found", key)
	}
	return append(model.OptionList(nil), list...), nil
}

// FetchError wraps a failed remote option lookup. It is informational: the
// affected field renders with an empty list.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("options: fetch %q: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
