package modbus

import (
	"errors"
	"fmt"
)

// ExceptionCode ist der Exception Code einer Modbus Exception Response.
type ExceptionCode uint8

// Standard Exception Codes (Modbus Application Protocol V1.1b3, §7)
const (
	ExceptionIllegalFunction     ExceptionCode = 0x01
	ExceptionIllegalDataAddress  ExceptionCode = 0x02
	ExceptionIllegalDataValue    ExceptionCode = 0x03
	ExceptionServerDeviceFailure ExceptionCode = 0x04
)

var exceptionStrings = map[ExceptionCode]string{
	ExceptionIllegalFunction:     "illegal function",
	ExceptionIllegalDataAddress:  "illegal data address",
	ExceptionIllegalDataValue:    "illegal data value",
	ExceptionServerDeviceFailure: "server device failure",
}

// String liefert die Textform; unbekannte Codes werden als solche markiert.
func (ec ExceptionCode) String() string {
	if s, ok := exceptionStrings[ec]; ok {
		return s
	}
	return fmt.Sprintf("unknown exception 0x%02X", uint8(ec))
}

// Known meldet ob der Code einer der vier Standard-Codes ist.
func (ec ExceptionCode) Known() bool {
	_, ok := exceptionStrings[ec]
	return ok
}

// ExceptionError ist die typisierte Form einer Exception Response: das Gerät
// hat den Request explizit abgelehnt.
type ExceptionError struct {
	Function uint8         // Function Code des abgelehnten Requests
	Code     ExceptionCode // vom Gerät gemeldeter Exception Code
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception [function 0x%02X: %s]", e.Function, e.Code)
}

// AsException extrahiert einen ExceptionError aus einer Fehlerkette.
func AsException(err error) (*ExceptionError, bool) {
	var exc *ExceptionError
	if errors.As(err, &exc) {
		return exc, true
	}
	return nil, false
}
