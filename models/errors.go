package models

import "errors"

var (
	ErrInvalidCollateralRatio = errors.New("invalid collateral ratio")
	ErrInvalidPoolScore       = errors.New("pool minimum score out of range")
	ErrUnknownCircuit         = errors.New("unknown circuit")
)
