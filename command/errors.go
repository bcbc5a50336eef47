package command

import "errors"

var (
	// ErrNotAddressable is returned when narrowing the fixed output CH3 to a programmable channel.
	ErrNotAddressable = errors.New("command: output is not individually addressable")
	// ErrTimeIntervalRange is returned for timer intervals above MaxTimeInterval seconds.
	ErrTimeIntervalRange = errors.New("command: time interval out of range")
	// ErrInvalidNumber is returned when a channel, slot or group number is out of range.
	ErrInvalidNumber = errors.New("command: number out of range")
)
