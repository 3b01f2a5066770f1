package modbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Client ist ein Modbus-TCP Master über eine einzelne TCP-Verbindung.
// Genau eine Transaktion gleichzeitig in flight (Mutex-serialisiert),
// TransactionID monoton pro Verbindung. Kein Reconnect, kein Retry.
type Client struct {
	address       string
	conn          net.Conn
	mu            sync.Mutex
	transactionID uint16
	timeout       time.Duration
	connected     bool
}

func NewClient(address string, timeout time.Duration) *Client {
	return &Client{
		address:       address,
		timeout:       timeout,
		transactionID: 0,
	}
}

// Connect stellt die TCP-Verbindung her
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, err := net.DialTimeout("tcp", c.address, c.timeout)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	c.conn = conn
	c.connected = true

	return nil
}

// Close schließt die Verbindung
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	err := c.conn.Close()
	c.connected = false
	c.conn = nil

	return err
}

// SendFrame sendet einen Request und liest genau eine Response: erst den
// 7-Byte MBAP Header, dann exakt Length-1 weitere Bytes. Ein einzelner
// kurzer Read wird nie als vollständiges Frame behandelt.
func (c *Client) SendFrame(ctx context.Context, request *ModbusFrame) (*ModbusFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, ErrNotConnected
	}

	// Unique Transaction ID pro Verbindung
	c.transactionID++
	request.TransactionID = c.transactionID

	requestData := request.Encode()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)

	if _, err := c.conn.Write(requestData); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}

	c.conn.SetReadDeadline(deadline)

	// MBAP Header lesen
	header := make([]byte, 7)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, c.readError(err)
	}

	// Length-Feld zählt UnitID (bereits im Header) + FunctionCode + Data
	length := int(header[4])<<8 | int(header[5])
	if length < 2 || length > 254 {
		return nil, fmt.Errorf("%w: implausible length field %d", ErrMalformedResponse, length)
	}

	adu := make([]byte, 7+length-1)
	copy(adu, header)
	if _, err := io.ReadFull(c.conn, adu[7:]); err != nil {
		return nil, c.readError(err)
	}

	response, err := DecodeFrame(adu)
	if err != nil {
		return nil, err
	}

	// Transaction ID prüfen
	if response.TransactionID != request.TransactionID {
		return nil, fmt.Errorf("%w: transaction ID mismatch: expected %d, got %d",
			ErrMalformedResponse, request.TransactionID, response.TransactionID)
	}

	return response, nil
}

// readError mappt End-of-Stream auf ErrConnectionClosed; alles andere bleibt
// ein opaker Transportfehler.
func (c *Client) readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return fmt.Errorf("read failed: %w", err)
}

// transact baut den Request, sendet ihn und dekodiert die Response gegen den
// erwarteten Function Code.
func (c *Client) transact(ctx context.Context, request *ModbusFrame, quantity uint16) (*Value, error) {
	response, err := c.SendFrame(ctx, request)
	if err != nil {
		return nil, err
	}
	return decodeFrameResponse(request.FunctionCode, quantity, response)
}

// ReadCoils liest Coils (0x01)
func (c *Client) ReadCoils(ctx context.Context, unitID uint8, startAddr uint16, quantity uint16) ([]bool, error) {
	request, err := ReadCoilsRequest(0, unitID, startAddr, quantity)
	if err != nil {
		return nil, err
	}

	value, err := c.transact(ctx, request, quantity)
	if err != nil {
		return nil, err
	}
	return value.Bits, nil
}

// ReadDiscreteInputs liest Discrete Inputs (0x02)
func (c *Client) ReadDiscreteInputs(ctx context.Context, unitID uint8, startAddr uint16, quantity uint16) ([]bool, error) {
	request, err := ReadDiscreteInputsRequest(0, unitID, startAddr, quantity)
	if err != nil {
		return nil, err
	}

	value, err := c.transact(ctx, request, quantity)
	if err != nil {
		return nil, err
	}
	return value.Bits, nil
}

// ReadHoldingRegisters liest Holding Registers (0x03)
func (c *Client) ReadHoldingRegisters(ctx context.Context, unitID uint8, startAddr uint16, quantity uint16) ([]int16, error) {
	request, err := ReadHoldingRegistersRequest(0, unitID, startAddr, quantity)
	if err != nil {
		return nil, err
	}

	value, err := c.transact(ctx, request, quantity)
	if err != nil {
		return nil, err
	}
	return value.Registers, nil
}

// ReadInputRegisters liest Input Registers (0x04)
func (c *Client) ReadInputRegisters(ctx context.Context, unitID uint8, startAddr uint16, quantity uint16) ([]int16, error) {
	request, err := ReadInputRegistersRequest(0, unitID, startAddr, quantity)
	if err != nil {
		return nil, err
	}

	value, err := c.transact(ctx, request, quantity)
	if err != nil {
		return nil, err
	}
	return value.Registers, nil
}

// WriteSingleCoil schreibt eine einzelne Coil (0x05)
func (c *Client) WriteSingleCoil(ctx context.Context, unitID uint8, addr uint16, value bool) error {
	request, err := WriteSingleCoilRequest(0, unitID, addr, value)
	if err != nil {
		return err
	}

	_, err = c.transact(ctx, request, 0)
	return err
}

// WriteSingleRegister schreibt ein einzelnes Register (0x06)
func (c *Client) WriteSingleRegister(ctx context.Context, unitID uint8, addr uint16, value int16) error {
	request, err := WriteSingleRegisterRequest(0, unitID, addr, value)
	if err != nil {
		return err
	}

	_, err = c.transact(ctx, request, 0)
	return err
}

// WriteMultipleCoils schreibt mehrere Coils (0x0F)
func (c *Client) WriteMultipleCoils(ctx context.Context, unitID uint8, startAddr uint16, values []bool) error {
	request, err := WriteMultipleCoilsRequest(0, unitID, startAddr, values)
	if err != nil {
		return err
	}

	_, err = c.transact(ctx, request, 0)
	return err
}

// WriteMultipleRegisters schreibt mehrere Register (0x10)
func (c *Client) WriteMultipleRegisters(ctx context.Context, unitID uint8, startAddr uint16, values []int16) error {
	request, err := WriteMultipleRegistersRequest(0, unitID, startAddr, values)
	if err != nil {
		return err
	}

	_, err = c.transact(ctx, request, 0)
	return err
}
