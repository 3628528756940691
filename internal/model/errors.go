package model

import "errors"

// Errors returned by Builder.Build when the assembled fields would break
// the canonical model's invariants.
var (
	// ErrUserinfoImplied is returned when user or password is present
	// without userinfo.
	ErrUserinfoImplied = errors.New("user or password present without userinfo")

	// ErrHostKindNone is returned when host presence and host kind disagree.
	ErrHostKindNone = errors.New("host presence does not match host kind")

	// ErrPortRange is returned for a port token that is not a decimal in [0, 65535].
	ErrPortRange = errors.New("port out of range [0, 65535]")
)
