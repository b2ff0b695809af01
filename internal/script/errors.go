package script

import (
	"errors"
	"fmt"
)

var ErrSyntax = errors.New("syntax error")

var (
	ErrEval                 = errors.New("evaluation error")
	ErrUnknownFunction      = fmt.Errorf("%w: unknown function", ErrEval)
	ErrUnresolvedIdentifier = fmt.Errorf("%w: unresolved identifier", ErrEval)
	ErrTypeMismatch         = fmt.Errorf("%w: type mismatch", ErrEval)
	ErrVoidValue            = fmt.Errorf("%w: void value used as a value", ErrEval)
	ErrDivisionByZero       = fmt.Errorf("%w: division by zero", ErrEval)
	ErrUnknownNode          = fmt.Errorf("%w: unknown node", ErrEval)
)

// SyntaxError reports the token where tokenizing or parsing stopped.
type SyntaxError struct {
	Token   Token
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d near %s: %s", e.Token.Line, e.Token, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func syntaxErrorf(tok Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Token: tok, Message: fmt.Sprintf(format, args...)}
}
