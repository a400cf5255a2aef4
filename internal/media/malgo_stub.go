//go:build !cgo

package media

import "errors"

const malgoAvailable = false

var errCGORequired = errors.New(`the malgo output requires CGO support.

Build with CGO_ENABLED=1 and a C compiler installed, or select the "oto" or
"null" output backend instead.`)

func newMalgoOutput() (Output, error) {
	return nil, errCGORequired
}
