package exception

import "github.com/yanun0323/errors"

var (
	ErrInvalidFill      = errors.New("invalid fill quantity")
	ErrBalanceViolation = errors.New("balance invariant violation")
)
