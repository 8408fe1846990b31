package block

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes for malformed blocks. They abort the scan of the file.
var (
	ErrMixedDefer   = errors.New("you are not supposed to mix deferred and non-deferred scripts in one block")
	ErrMixedAsync   = errors.New("you are not supposed to mix asynced and non-asynced scripts in one block")
	ErrMixedMedia   = errors.New("all stylesheets in one block must share the same media attribute")
	ErrLegacyMain   = errors.New("require.js data-main blocks are no longer supported")
	ErrUnterminated = errors.New("build block is not terminated by an endbuild directive")
)

// Error describes a malformed block.
type Error struct {
	Line int      // Line the offending content was found on
	Dest string   // Dest of the block being scanned
	Src  []string // Assets collected so far
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("block %s (line %d): %v\n  src: [%s]", e.Dest, e.Line, e.Err, strings.Join(e.Src, ", "))
}

// Unwrap returns the sentinel cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(line int, b *Block, cause error) *Error {
	e := &Error{Line: line, Err: cause}
	if b != nil {
		e.Dest = b.Dest
		e.Src = append([]string(nil), b.Src...)
	}
	return e
}
