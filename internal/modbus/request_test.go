package modbus

import (
	"bytes"
	"errors"
	"testing"
)

type encodeTest struct {
	name  string
	build func() (*ModbusFrame, error)
	want  []byte // komplettes ADU inkl. MBAP Header
}

var encodeTests = []encodeTest{
	{
		"read-coils",
		func() (*ModbusFrame, error) { return ReadCoilsRequest(0x0001, 0x01, 0x0013, 0x0013) },
		[]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x01, 0x01, 0x00, 0x13, 0x00, 0x13},
	},
	{
		"read-discrete-inputs",
		func() (*ModbusFrame, error) { return ReadDiscreteInputsRequest(0x0002, 0x01, 0x00C4, 0x0016) },
		[]byte{0x00, 0x02, 0x00, 0x00, 0x00, 0x06, 0x01, 0x02, 0x00, 0xC4, 0x00, 0x16},
	},
	{
		"read-holding-registers",
		func() (*ModbusFrame, error) { return ReadHoldingRegistersRequest(0x0003, 0x11, 0x006B, 0x0003) },
		[]byte{0x00, 0x03, 0x00, 0x00, 0x00, 0x06, 0x11, 0x03, 0x00, 0x6B, 0x00, 0x03},
	},
	{
		"read-input-registers",
		func() (*ModbusFrame, error) { return ReadInputRegistersRequest(0x0004, 0x01, 0x0008, 0x0001) },
		[]byte{0x00, 0x04, 0x00, 0x00, 0x00, 0x06, 0x01, 0x04, 0x00, 0x08, 0x00, 0x01},
	},
	{
		"write-single-coil-on",
		func() (*ModbusFrame, error) { return WriteSingleCoilRequest(0x0005, 0x01, 0x0005, true) },
		[]byte{0x00, 0x05, 0x00, 0x00, 0x00, 0x06, 0x01, 0x05, 0x00, 0x05, 0xFF, 0x00},
	},
	{
		"write-single-coil-off",
		func() (*ModbusFrame, error) { return WriteSingleCoilRequest(0x0006, 0x01, 0x0005, false) },
		[]byte{0x00, 0x06, 0x00, 0x00, 0x00, 0x06, 0x01, 0x05, 0x00, 0x05, 0x00, 0x00},
	},
	{
		"write-single-register-negative",
		func() (*ModbusFrame, error) { return WriteSingleRegisterRequest(0x0007, 0x01, 0x0010, -1) },
		[]byte{0x00, 0x07, 0x00, 0x00, 0x00, 0x06, 0x01, 0x06, 0x00, 0x10, 0xFF, 0xFF},
	},
	{
		"write-single-register-min",
		func() (*ModbusFrame, error) { return WriteSingleRegisterRequest(0x0008, 0x01, 0x0010, -32768) },
		[]byte{0x00, 0x08, 0x00, 0x00, 0x00, 0x06, 0x01, 0x06, 0x00, 0x10, 0x80, 0x00},
	},
	{
		// 9 Coils -> 2 Bytes, LSB-first: 0x8D, 0x01
		"write-multiple-coils",
		func() (*ModbusFrame, error) {
			return WriteMultipleCoilsRequest(0x0009, 0x01, 0x0013,
				[]bool{true, false, true, true, false, false, false, true, true})
		},
		[]byte{0x00, 0x09, 0x00, 0x00, 0x00, 0x09, 0x01, 0x0F,
			0x00, 0x13, 0x00, 0x09, 0x02, 0x8D, 0x01},
	},
	{
		"write-multiple-registers",
		func() (*ModbusFrame, error) {
			return WriteMultipleRegistersRequest(0x000A, 0x01, 0x0001, []int16{10, -2})
		},
		[]byte{0x00, 0x0A, 0x00, 0x00, 0x00, 0x0B, 0x01, 0x10,
			0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0xFF, 0xFE},
	},
}

func TestRequestEncoding(t *testing.T) {
	for _, tst := range encodeTests {
		frame, err := tst.build()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tst.name, err)
		}
		got := frame.Encode()
		if !bytes.Equal(got, tst.want) {
			t.Fatalf("%s: bad encoding\n\tgot:  %x\n\twant: %x", tst.name, got, tst.want)
		}
	}
}

func TestRequestEncodingIdempotent(t *testing.T) {
	for _, tst := range encodeTests {
		a, err := tst.build()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tst.name, err)
		}
		b, _ := tst.build()
		if !bytes.Equal(a.Encode(), b.Encode()) {
			t.Fatalf("%s: same request encoded differently", tst.name)
		}
	}
}

func TestRequestValidation(t *testing.T) {
	cases := []struct {
		name    string
		build   func() (*ModbusFrame, error)
		wantErr bool
	}{
		{"coils-zero", func() (*ModbusFrame, error) { return ReadCoilsRequest(1, 1, 0, 0) }, true},
		{"coils-max", func() (*ModbusFrame, error) { return ReadCoilsRequest(1, 1, 0, 2000) }, false},
		{"coils-over", func() (*ModbusFrame, error) { return ReadCoilsRequest(1, 1, 0, 2001) }, true},
		{"inputs-over", func() (*ModbusFrame, error) { return ReadDiscreteInputsRequest(1, 1, 0, 2001) }, true},
		{"regs-zero", func() (*ModbusFrame, error) { return ReadHoldingRegistersRequest(1, 1, 0, 0) }, true},
		{"regs-max", func() (*ModbusFrame, error) { return ReadHoldingRegistersRequest(1, 1, 0, 125) }, false},
		{"regs-over", func() (*ModbusFrame, error) { return ReadInputRegistersRequest(1, 1, 0, 126) }, true},
		{"wr-regs-empty", func() (*ModbusFrame, error) { return WriteMultipleRegistersRequest(1, 1, 0, nil) }, true},
		{"wr-regs-max", func() (*ModbusFrame, error) {
			return WriteMultipleRegistersRequest(1, 1, 0, make([]int16, 123))
		}, false},
		{"wr-regs-over", func() (*ModbusFrame, error) {
			return WriteMultipleRegistersRequest(1, 1, 0, make([]int16, 124))
		}, true},
		{"wr-coils-empty", func() (*ModbusFrame, error) { return WriteMultipleCoilsRequest(1, 1, 0, nil) }, true},
		{"wr-coils-max", func() (*ModbusFrame, error) {
			return WriteMultipleCoilsRequest(1, 1, 0, make([]bool, 1968))
		}, false},
		{"wr-coils-over", func() (*ModbusFrame, error) {
			return WriteMultipleCoilsRequest(1, 1, 0, make([]bool, 1969))
		}, true},
	}

	for _, tst := range cases {
		frame, err := tst.build()
		if tst.wantErr {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("%s: want ErrInvalidArgument, got %v", tst.name, err)
			}
			if frame != nil {
				t.Fatalf("%s: frame produced despite invalid argument", tst.name)
			}
		} else if err != nil {
			t.Fatalf("%s: unexpected error: %v", tst.name, err)
		}
	}
}

func TestEncodeLengthField(t *testing.T) {
	// Length-Feld muss exakt die Bytes nach dem Feld zählen
	for _, tst := range encodeTests {
		frame, err := tst.build()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tst.name, err)
		}
		adu := frame.Encode()
		declared := int(adu[4])<<8 | int(adu[5])
		if declared != len(adu)-6 {
			t.Fatalf("%s: length field %d, actual %d", tst.name, declared, len(adu)-6)
		}
	}
}
