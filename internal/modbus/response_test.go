package modbus

import (
	"errors"
	"testing"
)

// adu baut ein Response-ADU mit konsistentem Length-Feld.
func adu(transactionID uint16, unitID uint8, functionCode uint8, data ...byte) []byte {
	f := &ModbusFrame{
		TransactionID: transactionID,
		UnitID:        unitID,
		FunctionCode:  functionCode,
		Data:          data,
	}
	return f.Encode()
}

func TestDecodeRegisterSignExtension(t *testing.T) {
	raw := adu(1, 1, FuncCodeReadHoldingRegisters, 0x06, 0xFF, 0xFF, 0x80, 0x00, 0x7F, 0xFF)

	value, err := DecodeResponse(FuncCodeReadHoldingRegisters, 3, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value.Kind != ValueRegisters {
		t.Fatalf("want ValueRegisters, got %v", value.Kind)
	}

	want := []int16{-1, -32768, 32767}
	if len(value.Registers) != len(want) {
		t.Fatalf("want %d registers, got %d", len(want), len(value.Registers))
	}
	for i, w := range want {
		if value.Registers[i] != w {
			t.Fatalf("register %d: want %d, got %d", i, w, value.Registers[i])
		}
	}
}

func TestDecodeBitsTruncation(t *testing.T) {
	// 9 Coils in 2 Bytes: 0x8D 0x01, LSB-first; Padding-Bits werden verworfen
	raw := adu(1, 1, FuncCodeReadCoils, 0x02, 0x8D, 0x01)

	value, err := DecodeResponse(FuncCodeReadCoils, 9, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value.Kind != ValueBits {
		t.Fatalf("want ValueBits, got %v", value.Kind)
	}

	want := []bool{true, false, true, true, false, false, false, true, true}
	if len(value.Bits) != len(want) {
		t.Fatalf("want %d bits, got %d", len(want), len(value.Bits))
	}
	for i, w := range want {
		if value.Bits[i] != w {
			t.Fatalf("bit %d: want %v, got %v", i, w, value.Bits[i])
		}
	}
}

func TestDecodeCountProperty(t *testing.T) {
	// Synthetische Responses liefern exakt quantity Elemente
	for _, quantity := range []uint16{1, 7, 8, 9, 16, 100, 2000} {
		byteCount := (int(quantity) + 7) / 8
		data := make([]byte, 1+byteCount)
		data[0] = byte(byteCount)

		value, err := DecodeResponse(FuncCodeReadDiscreteInputs, quantity, adu(1, 1, FuncCodeReadDiscreteInputs, data...))
		if err != nil {
			t.Fatalf("quantity %d: unexpected error: %v", quantity, err)
		}
		if len(value.Bits) != int(quantity) {
			t.Fatalf("quantity %d: got %d bits", quantity, len(value.Bits))
		}
	}

	for _, quantity := range []uint16{1, 2, 125} {
		data := make([]byte, 1+2*int(quantity))
		data[0] = byte(2 * quantity)

		value, err := DecodeResponse(FuncCodeReadInputRegisters, quantity, adu(1, 1, FuncCodeReadInputRegisters, data...))
		if err != nil {
			t.Fatalf("quantity %d: unexpected error: %v", quantity, err)
		}
		if len(value.Registers) != int(quantity) {
			t.Fatalf("quantity %d: got %d registers", quantity, len(value.Registers))
		}
	}
}

func TestDecodeException(t *testing.T) {
	// 0x83 = ReadHoldingRegisters mit Exception-Flag, Code 0x02
	raw := adu(1, 1, 0x83, 0x02)

	value, err := DecodeResponse(FuncCodeReadHoldingRegisters, 2, raw)
	if value != nil {
		t.Fatalf("exception decoded to a value: %+v", value)
	}

	exc, ok := AsException(err)
	if !ok {
		t.Fatalf("want ExceptionError, got %v", err)
	}
	if exc.Code != ExceptionIllegalDataAddress {
		t.Fatalf("want illegal data address, got %s", exc.Code)
	}
	if exc.Function != FuncCodeReadHoldingRegisters {
		t.Fatalf("want function 0x03, got 0x%02X", exc.Function)
	}
}

func TestDecodeExceptionUnknownCode(t *testing.T) {
	raw := adu(1, 1, 0x81, 0x0A)

	_, err := DecodeResponse(FuncCodeReadCoils, 1, raw)
	exc, ok := AsException(err)
	if !ok {
		t.Fatalf("want ExceptionError, got %v", err)
	}
	if exc.Code.Known() {
		t.Fatalf("code 0x0A must not be a known exception")
	}
}

func TestDecodeWriteAck(t *testing.T) {
	raw := adu(1, 1, FuncCodeWriteSingleCoil, 0x00, 0x05, 0xFF, 0x00)

	value, err := DecodeResponse(FuncCodeWriteSingleCoil, 0, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value.Kind != ValueWriteAck {
		t.Fatalf("want ValueWriteAck, got %v", value.Kind)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name     string
		expected uint8
		quantity uint16
		raw      []byte
	}{
		{"too-short", FuncCodeReadCoils, 1, []byte{0x00, 0x01, 0x00, 0x00}},
		{"length-mismatch", FuncCodeReadCoils, 1,
			[]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x09, 0x01, 0x01, 0x01, 0x01}},
		{"protocol-id", FuncCodeReadCoils, 1,
			[]byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x04, 0x01, 0x01, 0x01, 0x01}},
		// ByteCount behauptet mehr Bytes als vorhanden sind
		{"byte-count-overrun", FuncCodeReadHoldingRegisters, 3,
			adu(1, 1, FuncCodeReadHoldingRegisters, 0x06, 0x00, 0x01, 0x00, 0x02)},
		// ByteCount passt zur Payload, aber nicht zur angefragten Menge
		{"byte-count-vs-quantity", FuncCodeReadHoldingRegisters, 3,
			adu(1, 1, FuncCodeReadHoldingRegisters, 0x04, 0x00, 0x01, 0x00, 0x02)},
		{"bit-byte-count-vs-quantity", FuncCodeReadCoils, 9,
			adu(1, 1, FuncCodeReadCoils, 0x01, 0x8D)},
		{"function-echo-mismatch", FuncCodeWriteSingleCoil, 0,
			adu(1, 1, FuncCodeWriteSingleRegister, 0x00, 0x05, 0xFF, 0x00)},
		{"exception-without-code", FuncCodeReadCoils, 1,
			[]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x01, 0x81}},
	}

	for _, tst := range cases {
		_, err := DecodeResponse(tst.expected, tst.quantity, tst.raw)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("%s: want ErrMalformedResponse, got %v", tst.name, err)
		}
	}
}
