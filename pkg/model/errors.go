package model

import "errors"

var (
	ErrBadMagic         = errors.New("bad model package magic")
	ErrMalformedPackage = errors.New("malformed model package")
	ErrNotImplemented   = errors.New("not implemented for this platform")
)
