package holdem

import "errors"

var (
	ErrIllegalAction = errors.New("illegal action")
	ErrPotMismatch   = errors.New("pot total does not match contributions")
)
