package model

import "errors"

var (
	ErrProjectNotFound error = errors.New("project not found")
	ErrInvalidArgument error = errors.New("invalid argument")
)
