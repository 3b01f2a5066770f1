package modbus

import (
	"encoding/binary"
	"fmt"
)

// MBAP Header (7 Bytes) + Function Code + Data
type ModbusFrame struct {
	TransactionID uint16 // 2 Bytes - Request/Response Korrelation
	ProtocolID    uint16 // 2 Bytes - Immer 0x0000 für Modbus
	Length        uint16 // 2 Bytes - Anzahl folgender Bytes
	UnitID        uint8  // 1 Byte - Slave Address
	FunctionCode  uint8  // 1 Byte - Modbus Function
	Data          []byte // Variable Länge
}

// Modbus Function Codes
const (
	FuncCodeReadCoils              = 0x01
	FuncCodeReadDiscreteInputs     = 0x02
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleCoil        = 0x05
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleCoils     = 0x0F
	FuncCodeWriteMultipleRegisters = 0x10
)

// Bit 0x80 im Function Code markiert eine Exception Response
const exceptionFlag = 0x80

// PDU Limits (Modbus Application Protocol V1.1b3)
const (
	MaxReadBits       = 2000 // Read Coils / Discrete Inputs
	MaxReadRegisters  = 125  // Read Holding / Input Registers
	MaxWriteBits      = 1968 // Write Multiple Coils
	MaxWriteRegisters = 123  // Write Multiple Registers
)

// Encode erstellt das komplette TCP Frame in einem vorab dimensionierten
// Buffer. Length = UnitID(1) + FunctionCode(1) + len(Data).
func (f *ModbusFrame) Encode() []byte {
	f.Length = uint16(len(f.Data) + 2)

	frame := make([]byte, 8+len(f.Data)) // MBAP(7) + FuncCode(1) + Data

	// MBAP Header
	binary.BigEndian.PutUint16(frame[0:2], f.TransactionID)
	binary.BigEndian.PutUint16(frame[2:4], f.ProtocolID)
	binary.BigEndian.PutUint16(frame[4:6], f.Length)
	frame[6] = f.UnitID

	// PDU
	frame[7] = f.FunctionCode
	copy(frame[8:], f.Data)

	return frame
}

// DecodeFrame parst ein empfangenes Frame. Das deklarierte Length-Feld muss
// exakt zu den tatsächlich vorhandenen Bytes passen.
func DecodeFrame(data []byte) (*ModbusFrame, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: frame too short: %d bytes", ErrMalformedResponse, len(data))
	}

	frame := &ModbusFrame{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(data[2:4]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
		UnitID:        data[6],
		FunctionCode:  data[7],
	}

	// Validate Protocol ID
	if frame.ProtocolID != 0x0000 {
		return nil, fmt.Errorf("%w: invalid protocol ID: 0x%04X", ErrMalformedResponse, frame.ProtocolID)
	}

	// Length zählt UnitID + FunctionCode + Data
	if int(frame.Length) != len(data)-6 {
		return nil, fmt.Errorf("%w: declared length %d but %d bytes follow the length field",
			ErrMalformedResponse, frame.Length, len(data)-6)
	}

	if len(data) > 8 {
		frame.Data = data[8:]
	}

	return frame, nil
}

// IsException meldet ob das Frame eine Exception Response ist.
func (f *ModbusFrame) IsException() bool {
	return f.FunctionCode&exceptionFlag != 0
}
