package vif

import "errors"

var (
	ErrInvalidUnpackType = errors.New("invalid VIF unpack type")
	ErrTruncated         = errors.New("VIF stream truncated")
)
