package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"todoctl/internal/service"
	"todoctl/internal/todos"
)

// TodoRef is a parsed todo reference: either the 1-based number shown by
// list, or a todo ID.
type TodoRef struct {
	Num int
	ID  string
}

func (r TodoRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// RefError is a todo reference that could not be parsed or resolved.
type RefError struct {
	Msg string
}

func (e *RefError) Error() string {
	return e.Msg
}

func refErrorf(format string, args ...any) *RefError {
	return &RefError{Msg: fmt.Sprintf(format, args...)}
}

// ErrTodoRefRequired indicates no todo reference was provided.
var ErrTodoRefRequired = &RefError{Msg: "todo reference required"}

// ParseTodoRef parses a todo reference from args.
//
// Parsing rules:
// 1. No args or a blank first arg → error: todo reference required
// 2. All digits → list number, which must be at least 1
// 3. Anything else → todo ID
// 4. More than one arg → error: unexpected argument
func ParseTodoRef(args []string) (TodoRef, error) {
	if len(args) == 0 {
		return TodoRef{}, ErrTodoRefRequired
	}
	if len(args) > 1 {
		return TodoRef{}, refErrorf("unexpected argument: %s", args[1])
	}

	ref := strings.TrimSpace(args[0])
	if ref == "" {
		return TodoRef{}, ErrTodoRefRequired
	}

	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil || num < 1 {
			return TodoRef{}, refErrorf("todo number out of range: %s", ref)
		}
		return TodoRef{Num: num}, nil
	}
	return TodoRef{ID: ref}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ResolveTodo finds the todo ref points to in the current list.
func ResolveTodo(ctx context.Context, store *todos.Store, ref TodoRef) (service.Todo, error) {
	list, err := store.List(ctx)
	if err != nil {
		return service.Todo{}, err
	}

	if ref.ID == "" {
		if ref.Num > len(list) {
			return service.Todo{}, refErrorf("todo number out of range: %d", ref.Num)
		}
		return list[ref.Num-1], nil
	}

	for _, t := range list {
		if t.ID == ref.ID {
			return t, nil
		}
	}
	return service.Todo{}, refErrorf("todo not found: %s", ref.ID)
}

// parseRefArg parses and resolves the reference in args, reporting errors
// to errOut. ok is false when the command should stop with code.
func parseRefArg(ctx context.Context, store *todos.Store, args []string, errOut io.Writer) (todo service.Todo, code int, ok bool) {
	ref, err := ParseTodoRef(args)
	if err != nil {
		return service.Todo{}, report(errOut, err), false
	}
	todo, err = ResolveTodo(ctx, store, ref)
	if err != nil {
		return service.Todo{}, report(errOut, err), false
	}
	return todo, 0, true
}
