package ffi

import (
	"errors"
	"fmt"
	"strconv"
)

// Status is the signed return code of every boundary call.
type Status int32

const (
	StatusOK                    Status = 0
	StatusGeneric               Status = 1
	StatusNullPointer           Status = -1
	StatusQueryFailed           Status = -2
	StatusEntityNotFound        Status = -3
	StatusNoSuchComponent       Status = -4
	StatusNoSuchEntity          Status = -5
	StatusWorldInsert           Status = -6
	StatusSendFailed            Status = -7
	StatusStringConversion      Status = -8
	StatusBufferTooSmall        Status = -9
	StatusPrematureSceneSwitch  Status = -10
	StatusGamepadNotFound       Status = -11
	StatusInvalidArgument       Status = -12
	StatusNoSuchHandle          Status = -13
	StatusGenericAsset          Status = -19
	StatusInvalidURI            Status = -20
	StatusAssetNotFound         Status = -21
	StatusInvalidHandle         Status = -22
	StatusPhysicsObjectNotFound Status = -23
	StatusInvalidEnumOrdinal    Status = -24
	StatusMissingComponent      Status = -25
	StatusDoubleFree            Status = -26
	StatusInvalidEntity         Status = -100
	StatusInvalidUTF8           Status = -108
	StatusUnknown               Status = -1274
)

var statusNames = map[Status]string{
	StatusOK:                    "OK",
	StatusGeneric:               "GenericError",
	StatusNullPointer:           "NullPointer",
	StatusQueryFailed:           "QueryFailed",
	StatusEntityNotFound:        "EntityNotFound",
	StatusNoSuchComponent:       "NoSuchComponent",
	StatusNoSuchEntity:          "NoSuchEntity",
	StatusWorldInsert:           "WorldInsertError",
	StatusSendFailed:            "SendError",
	StatusStringConversion:      "StringConversionError",
	StatusBufferTooSmall:        "BufferTooSmall",
	StatusPrematureSceneSwitch:  "PrematureSceneSwitch",
	StatusGamepadNotFound:       "GamepadNotFound",
	StatusInvalidArgument:       "InvalidArgument",
	StatusNoSuchHandle:          "NoSuchHandle",
	StatusGenericAsset:          "GenericAssetError",
	StatusInvalidURI:            "InvalidURI",
	StatusAssetNotFound:         "AssetNotFound",
	StatusInvalidHandle:         "InvalidHandle",
	StatusPhysicsObjectNotFound: "PhysicsObjectNotFound",
	StatusInvalidEnumOrdinal:    "InvalidEnumOrdinal",
	StatusMissingComponent:      "MissingComponent",
	StatusDoubleFree:            "DoubleFree",
	StatusInvalidEntity:         "InvalidEntity",
	StatusInvalidUTF8:           "InvalidUTF8",
	StatusUnknown:               "UnknownError",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n + " (" + strconv.Itoa(int(s)) + ")"
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// OK reports whether the call succeeded.
func (s Status) OK() bool { return s == StatusOK }

// Error is a failed boundary call.
type Error struct {
	Op     string
	Status Status
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// Is matches another *Error by status, so the Err* sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Status == e.Status
}

// Check converts a status into an error. StatusOK yields nil.
func Check(op string, s Status) error {
	if s == StatusOK {
		return nil
	}
	return &Error{Op: op, Status: s}
}

// Sentinels for errors.Is. They carry no Op.
var (
	ErrNullPointer           = &Error{Status: StatusNullPointer}
	ErrQueryFailed           = &Error{Status: StatusQueryFailed}
	ErrEntityNotFound        = &Error{Status: StatusEntityNotFound}
	ErrNoSuchComponent       = &Error{Status: StatusNoSuchComponent}
	ErrBufferTooSmall        = &Error{Status: StatusBufferTooSmall}
	ErrPrematureSceneSwitch  = &Error{Status: StatusPrematureSceneSwitch}
	ErrInvalidArgument       = &Error{Status: StatusInvalidArgument}
	ErrNoSuchHandle          = &Error{Status: StatusNoSuchHandle}
	ErrAssetNotFound         = &Error{Status: StatusAssetNotFound}
	ErrInvalidHandle         = &Error{Status: StatusInvalidHandle}
	ErrPhysicsObjectNotFound = &Error{Status: StatusPhysicsObjectNotFound}
	ErrInvalidEnumOrdinal    = &Error{Status: StatusInvalidEnumOrdinal}
	ErrDoubleFree            = &Error{Status: StatusDoubleFree}
	ErrInvalidUTF8           = &Error{Status: StatusInvalidUTF8}
	ErrGenericAsset          = &Error{Status: StatusGenericAsset}
	ErrGamepadNotFound       = &Error{Status: StatusGamepadNotFound}
)

// protocolViolations are statuses that always signal a caller bug.
var protocolViolations = map[Status]bool{
	StatusPrematureSceneSwitch: true,
	StatusDoubleFree:           true,
	StatusInvalidEnumOrdinal:   true,
}

// IsProtocolViolation reports whether err is a caller bug that must be raised
// regardless of strict mode.
func IsProtocolViolation(err error) bool {
	if err == nil {
		return false
	}
	var v *ViolationError
	if errors.As(err, &v) {
		return true
	}
	var fe *Error
	if errors.As(err, &fe) {
		return protocolViolations[fe.Status]
	}
	return false
}

// ViolationError marks a protocol violation detected on the script side,
// before any boundary call was made.
type ViolationError struct {
	Op     string
	Reason string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: protocol violation: %s", e.Op, e.Reason)
}
