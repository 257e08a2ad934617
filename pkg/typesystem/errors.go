package typesystem

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrRegistrySealed is returned when a sealed registry is modified.
	ErrRegistrySealed = errors.New("typesystem: registry is sealed")
	// ErrDuplicateType is returned when a type name is registered twice.
	ErrDuplicateType = errors.New("typesystem: duplicate type")
	// ErrDuplicateMember is returned when a member is defined twice.
	ErrDuplicateMember = errors.New("typesystem: duplicate member")
	// ErrUnknownType is returned when a name does not resolve.
	ErrUnknownType = errors.New("typesystem: unknown type")
	// ErrUnknownMember is returned when binding targets a missing member.
	ErrUnknownMember = errors.New("typesystem: unknown member")
)

// MemberError reports a problem with one member of a registered type.
type MemberError struct {
	Owner  string
	Member string
	Err    error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%v: %s.%s", e.Err, e.Owner, e.Member)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}

// AnnotationError reports a malformed type annotation.
type AnnotationError struct {
	Source   string
	Position int
	Message  string
	Err      error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("typesystem: %s at position %d in %q", e.Message, e.Position, e.Source)
}

func (e *AnnotationError) Unwrap() error {
	return e.Err
}
