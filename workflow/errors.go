package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/wxcomment/wxcomment-go/corpus"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/llm"
	"github.com/wxcomment/wxcomment-go/location"
)

// NodeError tags a node failure with a stable code so the run result
// and the API error shape can report it without string matching.
type NodeError struct {
	Code  string
	Cause error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Cause)
}

func (e *NodeError) Unwrap() error { return e.Cause }

func nodeErr(code string, cause error) error {
	return &NodeError{Code: code, Cause: cause}
}

// errorCode maps any node failure to (code, message). Known domain
// errors keep their own codes; everything else is internal.
func errorCode(err error) (string, string) {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne.Code, ne.Cause.Error()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CodeTimeoutError, err.Error()
	case errors.Is(err, location.ErrNotFound):
		return CodeLocationNotFound, err.Error()
	case errors.Is(err, corpus.ErrNotFound):
		return CodeCorpusNotFound, err.Error()
	}
	var fe *forecast.FetchError
	if errors.As(err, &fe) {
		return CodeWeatherFetchError, fe.Error()
	}
	var le *llm.Error
	if errors.As(err, &le) {
		return CodeLLMError, le.Error()
	}
	return CodeInternalError, err.Error()
}
