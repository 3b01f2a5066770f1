package modbus

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// pipeClient liefert einen verbundenen Client über net.Pipe plus das
// Gegenende für den simulierten Slave.
func pipeClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()

	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	c := &Client{
		conn:      clientEnd,
		connected: true,
		timeout:   time.Second,
	}
	return c, serverEnd
}

// readRequestADU liest ein komplettes Request-ADU vom Slave-Ende.
func readRequestADU(t *testing.T, conn net.Conn) []byte {
	t.Helper()

	header := make([]byte, 7)
	if _, err := io.ReadFull(conn, header); err != nil {
		t.Errorf("slave: header read failed: %v", err)
		return nil
	}
	length := int(header[4])<<8 | int(header[5])
	rest := make([]byte, length-1)
	if _, err := io.ReadFull(conn, rest); err != nil {
		t.Errorf("slave: body read failed: %v", err)
		return nil
	}
	return append(header, rest...)
}

func TestClientReadHoldingRegisters(t *testing.T) {
	c, slave := pipeClient(t)

	go func() {
		request := readRequestADU(t, slave)
		if request == nil {
			return
		}
		if request[7] != FuncCodeReadHoldingRegisters {
			t.Errorf("slave: unexpected function code 0x%02X", request[7])
		}

		response := &ModbusFrame{
			TransactionID: uint16(request[0])<<8 | uint16(request[1]),
			UnitID:        request[6],
			FunctionCode:  FuncCodeReadHoldingRegisters,
			Data:          []byte{0x04, 0xFF, 0xFF, 0x00, 0x2A},
		}
		raw := response.Encode()

		// Response in zwei Teilen senden: der Client muss Reads loopen
		slave.Write(raw[:5])
		slave.Write(raw[5:])
	}()

	regs, err := c.ReadHoldingRegisters(context.Background(), 1, 0x10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regs) != 2 || regs[0] != -1 || regs[1] != 42 {
		t.Fatalf("bad registers: %v", regs)
	}
}

func TestClientExceptionResponse(t *testing.T) {
	c, slave := pipeClient(t)

	go func() {
		request := readRequestADU(t, slave)
		if request == nil {
			return
		}
		response := &ModbusFrame{
			TransactionID: uint16(request[0])<<8 | uint16(request[1]),
			UnitID:        request[6],
			FunctionCode:  FuncCodeWriteSingleRegister | exceptionFlag,
			Data:          []byte{byte(ExceptionIllegalDataValue)},
		}
		slave.Write(response.Encode())
	}()

	err := c.WriteSingleRegister(context.Background(), 1, 0x10, 7)
	exc, ok := AsException(err)
	if !ok {
		t.Fatalf("want ExceptionError, got %v", err)
	}
	if exc.Code != ExceptionIllegalDataValue {
		t.Fatalf("want illegal data value, got %s", exc.Code)
	}
}

func TestClientConnectionClosed(t *testing.T) {
	c, slave := pipeClient(t)

	go func() {
		readRequestADU(t, slave)
		slave.Close()
	}()

	_, err := c.ReadCoils(context.Background(), 1, 0, 8)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("want ErrConnectionClosed, got %v", err)
	}
}

func TestClientTransactionMismatch(t *testing.T) {
	c, slave := pipeClient(t)

	go func() {
		request := readRequestADU(t, slave)
		if request == nil {
			return
		}
		response := &ModbusFrame{
			TransactionID: uint16(request[0])<<8 | uint16(request[1]) + 100,
			UnitID:        request[6],
			FunctionCode:  FuncCodeReadCoils,
			Data:          []byte{0x01, 0x00},
		}
		slave.Write(response.Encode())
	}()

	_, err := c.ReadCoils(context.Background(), 1, 0, 8)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("want ErrMalformedResponse, got %v", err)
	}
}

func TestClientTransactionIDsIncrement(t *testing.T) {
	c, slave := pipeClient(t)

	txids := make(chan uint16, 2)
	go func() {
		for i := 0; i < 2; i++ {
			request := readRequestADU(t, slave)
			if request == nil {
				return
			}
			txid := uint16(request[0])<<8 | uint16(request[1])
			txids <- txid

			response := &ModbusFrame{
				TransactionID: txid,
				UnitID:        request[6],
				FunctionCode:  FuncCodeWriteSingleCoil,
				Data:          request[8:12],
			}
			slave.Write(response.Encode())
		}
	}()

	for i := 0; i < 2; i++ {
		if err := c.WriteSingleCoil(context.Background(), 1, 3, true); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	first, second := <-txids, <-txids
	if second != first+1 {
		t.Fatalf("transaction ids not monotonic: %d then %d", first, second)
	}
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient("127.0.0.1:502", time.Second)

	_, err := c.ReadCoils(context.Background(), 1, 0, 1)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("want ErrNotConnected, got %v", err)
	}
}

func TestClientValidatesBeforeSending(t *testing.T) {
	// Ungültige Argumente dürfen den Transport nie erreichen
	c, _ := pipeClient(t)

	_, err := c.ReadCoils(context.Background(), 1, 0, 2001)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}
