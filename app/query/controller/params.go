package controller

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrParameterMissing marks a required query parameter that is absent or empty.
	ErrParameterMissing = errors.New("missing parameter")
	// ErrParameterInvalid marks a query parameter that is present but unusable.
	ErrParameterInvalid = errors.New("invalid input")
)

type paramError struct {
	kind   error
	name   string
	detail string
}

func (e *paramError) Error() string {
	if e.kind == ErrParameterMissing {
		return fmt.Sprintf("missing parameter: %s", e.name)
	}
	return e.detail
}

func (e *paramError) Is(target error) bool { return target == e.kind }

func missingParam(name string) error {
	return &paramError{kind: ErrParameterMissing, name: name}
}

func invalidParam(name, format string, args ...any) error {
	return &paramError{kind: ErrParameterInvalid, name: name, detail: fmt.Sprintf(format, args...)}
}

// requireParams reports the first of names that is absent or empty.
func requireParams(qs url.Values, names ...string) error {
	for _, name := range names {
		if qs.Get(name) == "" {
			return missingParam(name)
		}
	}
	return nil
}

// parseInt64 accepts an optionally signed base 10 integer and nothing else.
func parseInt64(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func intParam(qs url.Values, name string) (int64, error) {
	raw := qs.Get(name)
	n, ok := parseInt64(raw)
	if !ok {
		return 0, invalidParam(name, "%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// intListParam splits name on commas, keeping request order and duplicates.
func intListParam(qs url.Values, name string) ([]int64, error) {
	raw := qs.Get(name)
	tokens := strings.Split(raw, ",")
	out := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		n, ok := parseInt64(token)
		if !ok {
			return nil, invalidParam(name, "%s must be a comma-separated list of integers, got %q", name, token)
		}
		out = append(out, n)
	}
	return out, nil
}
