package domain

import "errors"

// ErrLinkClosed is returned when writing to a link whose peer went away.
var ErrLinkClosed = errors.New("link closed")

// ErrLinkBusy is returned when a link cannot take another outbound line
// without blocking.
var ErrLinkBusy = errors.New("link busy")

// ErrUnknownHandle is returned when a command refers to a released session.
var ErrUnknownHandle = errors.New("unknown session handle")

// ErrLineTooLarge is returned when an inbound line exceeds the size limit.
var ErrLineTooLarge = errors.New("line exceeds maximum allowed size")

// ErrInvalidUTF8 is returned when an inbound line is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("line contains invalid UTF-8 sequences")
