package modbus

import (
	"encoding/binary"
	"fmt"
)

// ValueKind unterscheidet die beiden Ergebnisvarianten eines Reads.
type ValueKind uint8

const (
	ValueWriteAck  ValueKind = iota // Write bestätigt, keine Nutzdaten
	ValueBits                       // Coils / Discrete Inputs
	ValueRegisters                  // Holding / Input Registers
)

// Value ist das dekodierte Ergebnis einer Response: Bits für die Bit-Spaces,
// vorzeichenbehaftete 16-Bit-Register für die Register-Spaces, jeweils in
// aufsteigender Adressreihenfolge.
type Value struct {
	Kind      ValueKind
	Bits      []bool
	Registers []int16
}

// DecodeResponse ist der gemeinsame Einstiegspunkt des Decoders: validiert das
// ADU gegen den Function Code des zugehörigen Requests und liefert entweder
// einen typisierten Wert oder einen Fehler (ExceptionError bei expliziter
// Ablehnung durch das Gerät). Zustandslos pro Aufruf.
func DecodeResponse(expectedFunction uint8, quantity uint16, adu []byte) (*Value, error) {
	frame, err := DecodeFrame(adu)
	if err != nil {
		return nil, err
	}
	return decodeFrameResponse(expectedFunction, quantity, frame)
}

func decodeFrameResponse(expectedFunction uint8, quantity uint16, frame *ModbusFrame) (*Value, error) {
	if err := checkFunction(expectedFunction, frame); err != nil {
		return nil, err
	}

	switch expectedFunction {
	case FuncCodeReadCoils, FuncCodeReadDiscreteInputs:
		bits, err := ParseBitResponse(frame, quantity)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: ValueBits, Bits: bits}, nil

	case FuncCodeReadHoldingRegisters, FuncCodeReadInputRegisters:
		regs, err := ParseRegisterResponse(frame, quantity)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: ValueRegisters, Registers: regs}, nil

	case FuncCodeWriteSingleCoil, FuncCodeWriteSingleRegister,
		FuncCodeWriteMultipleCoils, FuncCodeWriteMultipleRegisters:
		// Non-Exception Response bestätigt den Write, Payload wird nicht
		// weiter dekodiert.
		return &Value{Kind: ValueWriteAck}, nil

	default:
		return nil, fmt.Errorf("%w: function code 0x%02X", ErrInvalidArgument, expectedFunction)
	}
}

// checkFunction prüft Exception-Flag und Function-Code-Echo.
func checkFunction(expectedFunction uint8, frame *ModbusFrame) error {
	if frame.IsException() {
		if len(frame.Data) < 1 {
			return fmt.Errorf("%w: exception response without exception code", ErrMalformedResponse)
		}
		return &ExceptionError{
			Function: frame.FunctionCode &^ exceptionFlag,
			Code:     ExceptionCode(frame.Data[0]),
		}
	}

	if frame.FunctionCode != expectedFunction {
		return fmt.Errorf("%w: function code 0x%02X does not match request 0x%02X",
			ErrMalformedResponse, frame.FunctionCode, expectedFunction)
	}

	return nil
}

// ParseBitResponse dekodiert eine Read Coils / Read Discrete Inputs Response.
// Der ByteCount muss sowohl zur tatsächlichen Payload als auch zu
// ceil(quantity/8) passen; danach wird LSB-first entpackt und auf die
// angefragte Anzahl gekürzt (Padding-Bits werden verworfen).
func ParseBitResponse(f *ModbusFrame, quantity uint16) ([]bool, error) {
	if len(f.Data) < 1 {
		return nil, fmt.Errorf("%w: bit response without byte count", ErrMalformedResponse)
	}

	byteCount := int(f.Data[0])
	if len(f.Data)-1 != byteCount {
		return nil, fmt.Errorf("%w: byte count %d but %d payload bytes present",
			ErrMalformedResponse, byteCount, len(f.Data)-1)
	}
	if expected := (int(quantity) + 7) / 8; byteCount != expected {
		return nil, fmt.Errorf("%w: byte count %d, expected %d for %d bits",
			ErrMalformedResponse, byteCount, expected, quantity)
	}

	bits := make([]bool, 0, byteCount*8)
	for _, b := range f.Data[1:] {
		for bit := 0; bit < 8; bit++ {
			bits = append(bits, b&(1<<uint(bit)) != 0)
		}
	}

	return bits[:quantity], nil
}

// ParseRegisterResponse dekodiert eine Read Holding / Input Registers
// Response. Registerpaare werden Big-Endian gelesen und vorzeichenbehaftet
// interpretiert (0xFFFF -> -1, 0x8000 -> -32768).
func ParseRegisterResponse(f *ModbusFrame, quantity uint16) ([]int16, error) {
	if len(f.Data) < 1 {
		return nil, fmt.Errorf("%w: register response without byte count", ErrMalformedResponse)
	}

	byteCount := int(f.Data[0])
	if len(f.Data)-1 != byteCount {
		return nil, fmt.Errorf("%w: byte count %d but %d payload bytes present",
			ErrMalformedResponse, byteCount, len(f.Data)-1)
	}
	if byteCount != 2*int(quantity) {
		return nil, fmt.Errorf("%w: byte count %d, expected %d for %d registers",
			ErrMalformedResponse, byteCount, 2*quantity, quantity)
	}

	registers := make([]int16, quantity)
	for i := range registers {
		registers[i] = int16(binary.BigEndian.Uint16(f.Data[1+2*i : 3+2*i]))
	}

	return registers, nil
}
