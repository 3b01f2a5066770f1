package modbus

import (
	"encoding/binary"
	"fmt"
)

// Request Builder: eine Funktion pro Function Code. Validierung passiert hier,
// bevor irgendwelche Bytes entstehen (fail fast mit ErrInvalidArgument).
// Die TransactionID wird vom Client beim Senden vergeben.

func readRequest(transactionID uint16, unitID uint8, functionCode uint8, startAddr uint16, quantity uint16) *ModbusFrame {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], startAddr)
	binary.BigEndian.PutUint16(data[2:4], quantity)

	return &ModbusFrame{
		TransactionID: transactionID,
		ProtocolID:    0x0000,
		UnitID:        unitID,
		FunctionCode:  functionCode,
		Data:          data,
	}
}

// ReadCoilsRequest erstellt Request für Function Code 0x01
func ReadCoilsRequest(transactionID uint16, unitID uint8, startAddr uint16, quantity uint16) (*ModbusFrame, error) {
	if quantity < 1 || quantity > MaxReadBits {
		return nil, fmt.Errorf("%w: coil quantity %d out of range [1..%d]", ErrInvalidArgument, quantity, MaxReadBits)
	}
	return readRequest(transactionID, unitID, FuncCodeReadCoils, startAddr, quantity), nil
}

// ReadDiscreteInputsRequest erstellt Request für Function Code 0x02
func ReadDiscreteInputsRequest(transactionID uint16, unitID uint8, startAddr uint16, quantity uint16) (*ModbusFrame, error) {
	if quantity < 1 || quantity > MaxReadBits {
		return nil, fmt.Errorf("%w: discrete input quantity %d out of range [1..%d]", ErrInvalidArgument, quantity, MaxReadBits)
	}
	return readRequest(transactionID, unitID, FuncCodeReadDiscreteInputs, startAddr, quantity), nil
}

// ReadHoldingRegistersRequest erstellt Request für Function Code 0x03
func ReadHoldingRegistersRequest(transactionID uint16, unitID uint8, startAddr uint16, quantity uint16) (*ModbusFrame, error) {
	if quantity < 1 || quantity > MaxReadRegisters {
		return nil, fmt.Errorf("%w: register quantity %d out of range [1..%d]", ErrInvalidArgument, quantity, MaxReadRegisters)
	}
	return readRequest(transactionID, unitID, FuncCodeReadHoldingRegisters, startAddr, quantity), nil
}

// ReadInputRegistersRequest erstellt Request für Function Code 0x04
func ReadInputRegistersRequest(transactionID uint16, unitID uint8, startAddr uint16, quantity uint16) (*ModbusFrame, error) {
	if quantity < 1 || quantity > MaxReadRegisters {
		return nil, fmt.Errorf("%w: register quantity %d out of range [1..%d]", ErrInvalidArgument, quantity, MaxReadRegisters)
	}
	return readRequest(transactionID, unitID, FuncCodeReadInputRegisters, startAddr, quantity), nil
}

// WriteSingleCoilRequest erstellt Request für Function Code 0x05.
// true wird als 0xFF00 kodiert, false als 0x0000.
func WriteSingleCoilRequest(transactionID uint16, unitID uint8, addr uint16, value bool) (*ModbusFrame, error) {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], addr)
	if value {
		data[2] = 0xFF
	}

	return &ModbusFrame{
		TransactionID: transactionID,
		ProtocolID:    0x0000,
		UnitID:        unitID,
		FunctionCode:  FuncCodeWriteSingleCoil,
		Data:          data,
	}, nil
}

// WriteSingleRegisterRequest erstellt Request für Function Code 0x06.
// Negative Werte landen als Zweierkomplement auf dem Draht (-1 -> 0xFFFF).
func WriteSingleRegisterRequest(transactionID uint16, unitID uint8, addr uint16, value int16) (*ModbusFrame, error) {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], addr)
	binary.BigEndian.PutUint16(data[2:4], uint16(value))

	return &ModbusFrame{
		TransactionID: transactionID,
		ProtocolID:    0x0000,
		UnitID:        unitID,
		FunctionCode:  FuncCodeWriteSingleRegister,
		Data:          data,
	}, nil
}

// WriteMultipleRegistersRequest erstellt Request für Function Code 0x10.
// Payload: Addr(2) + Count(2) + ByteCount(1 = 2*n) + n*2 Bytes Werte.
func WriteMultipleRegistersRequest(transactionID uint16, unitID uint8, startAddr uint16, values []int16) (*ModbusFrame, error) {
	n := len(values)
	if n < 1 || n > MaxWriteRegisters {
		return nil, fmt.Errorf("%w: register count %d out of range [1..%d]", ErrInvalidArgument, n, MaxWriteRegisters)
	}

	data := make([]byte, 5+2*n)
	binary.BigEndian.PutUint16(data[0:2], startAddr)
	binary.BigEndian.PutUint16(data[2:4], uint16(n))
	data[4] = uint8(2 * n)
	for i, v := range values {
		binary.BigEndian.PutUint16(data[5+2*i:7+2*i], uint16(v))
	}

	return &ModbusFrame{
		TransactionID: transactionID,
		ProtocolID:    0x0000,
		UnitID:        unitID,
		FunctionCode:  FuncCodeWriteMultipleRegisters,
		Data:          data,
	}, nil
}

// WriteMultipleCoilsRequest erstellt Request für Function Code 0x0F.
// Payload: Addr(2) + Count(2) + ByteCount(1 = ceil(n/8)) + gepackte Bits.
// Bit-Packing LSB-first: Bit b von Byte i trägt Adresse startAddr + 8*i + b,
// rechts mit Nullbits auf volle Bytes aufgefüllt.
func WriteMultipleCoilsRequest(transactionID uint16, unitID uint8, startAddr uint16, values []bool) (*ModbusFrame, error) {
	n := len(values)
	if n < 1 || n > MaxWriteBits {
		return nil, fmt.Errorf("%w: coil count %d out of range [1..%d]", ErrInvalidArgument, n, MaxWriteBits)
	}

	byteCount := (n + 7) / 8
	data := make([]byte, 5+byteCount)
	binary.BigEndian.PutUint16(data[0:2], startAddr)
	binary.BigEndian.PutUint16(data[2:4], uint16(n))
	data[4] = uint8(byteCount)
	for i, v := range values {
		if v {
			data[5+i/8] |= 1 << uint(i%8)
		}
	}

	return &ModbusFrame{
		TransactionID: transactionID,
		ProtocolID:    0x0000,
		UnitID:        unitID,
		FunctionCode:  FuncCodeWriteMultipleCoils,
		Data:          data,
	}, nil
}
