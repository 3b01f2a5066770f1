package modbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/ModbusCore/internal/types"
	"github.com/google/uuid"
)

// Device bindet ein Geräteprofil an einen Client: benannte Register statt
// roher Adressen, Dispatch auf den richtigen Address Space pro Register.
type Device struct {
	ID          uuid.UUID
	Name        string
	Profile     *types.DeviceProfileDefinition
	Client      *Client
	RegisterMap map[string]*types.RegisterDefinition
	mu          sync.RWMutex
	lastValues  map[string]any
	connected   bool
}

func NewDevice(
	name string,
	ipAddress string,
	port int,
	profile *types.DeviceProfileDefinition,
	timeout time.Duration,
) (*Device, error) {
	registerMap := make(map[string]*types.RegisterDefinition)
	for i := range profile.Registers {
		reg := &profile.Registers[i]
		registerMap[reg.Name] = reg
	}

	address := fmt.Sprintf("%s:%d", ipAddress, port)
	client := NewClient(address, timeout)

	return &Device{
		ID:          uuid.New(),
		Name:        name,
		Profile:     profile,
		Client:      client,
		RegisterMap: registerMap,
		lastValues:  make(map[string]any),
		connected:   false,
	}, nil
}

func (d *Device) Connect() error {
	if err := d.Client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", d.Name, err)
	}

	d.mu.Lock()
	d.connected = true
	d.mu.Unlock()

	return nil
}

func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	if err := d.Client.Close(); err != nil {
		return err
	}

	d.connected = false
	return nil
}

func (d *Device) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// ReadRegister liest ein benanntes Register über den zum Space passenden
// Function Code und skaliert das Ergebnis gemäß Profil.
func (d *Device) ReadRegister(ctx context.Context, registerName string) (any, error) {
	d.mu.RLock()
	reg, exists := d.RegisterMap[registerName]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("register not found: %s", registerName)
	}

	unitID := uint8(d.Profile.Connection.UnitID)
	var value any

	switch reg.Type {
	case types.RegisterTypeCoil:
		bits, err := d.Client.ReadCoils(ctx, unitID, reg.Address, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to read register %s: %w", registerName, err)
		}
		value = bits[0]

	case types.RegisterTypeDiscreteInput:
		bits, err := d.Client.ReadDiscreteInputs(ctx, unitID, reg.Address, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to read register %s: %w", registerName, err)
		}
		value = bits[0]

	case types.RegisterTypeHoldingRegister, types.RegisterTypeInputRegister:
		quantity := registerQuantity(reg.DataType)

		var regs []int16
		var err error
		if reg.Type == types.RegisterTypeHoldingRegister {
			regs, err = d.Client.ReadHoldingRegisters(ctx, unitID, reg.Address, quantity)
		} else {
			regs, err = d.Client.ReadInputRegisters(ctx, unitID, reg.Address, quantity)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read register %s: %w", registerName, err)
		}

		value = convertRegisterValue(regs, reg.DataType, reg.ScaleFactor)

	default:
		return nil, fmt.Errorf("unsupported register type: %s", reg.Type)
	}

	d.mu.Lock()
	d.lastValues[registerName] = value
	d.mu.Unlock()

	return value, nil
}

// WriteRegister schreibt ein benanntes Register. Nur read_write Register und
// die 16-Bit Datentypen bzw. Coils sind schreibbar.
func (d *Device) WriteRegister(ctx context.Context, registerName string, value any) error {
	d.mu.RLock()
	reg, exists := d.RegisterMap[registerName]
	d.mu.RUnlock()

	if !exists {
		return fmt.Errorf("register not found: %s", registerName)
	}

	if reg.Access != types.AccessTypeReadWrite {
		return fmt.Errorf("register %s is read-only", registerName)
	}

	unitID := uint8(d.Profile.Connection.UnitID)

	switch reg.Type {
	case types.RegisterTypeCoil:
		state, err := coerceBool(value)
		if err != nil {
			return fmt.Errorf("register %s: %w", registerName, err)
		}
		return d.Client.WriteSingleCoil(ctx, unitID, reg.Address, state)

	case types.RegisterTypeHoldingRegister:
		if reg.DataType != types.DataTypeUint16 && reg.DataType != types.DataTypeInt16 {
			return fmt.Errorf("only int16/uint16 write supported for now")
		}

		regValue, err := coerceInt16(value, reg.ScaleFactor)
		if err != nil {
			return fmt.Errorf("register %s: %w", registerName, err)
		}
		return d.Client.WriteSingleRegister(ctx, unitID, reg.Address, regValue)

	default:
		return fmt.Errorf("register type %s is not writable", reg.Type)
	}
}

func (d *Device) GetLastValue(registerName string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	value, exists := d.lastValues[registerName]
	return value, exists
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("unsupported coil value type: %T", value)
	}
}

func coerceInt16(value any, scaleFactor float64) (int16, error) {
	if scaleFactor == 0 {
		scaleFactor = 1.0
	}

	switch v := value.(type) {
	case int:
		return int16(v), nil
	case int16:
		return v, nil
	case uint16:
		return int16(v), nil
	case float64:
		return int16(v / scaleFactor), nil
	default:
		return 0, fmt.Errorf("unsupported value type: %T", value)
	}
}

func registerQuantity(dataType types.DataType) uint16 {
	switch dataType {
	case types.DataTypeBool, types.DataTypeInt16, types.DataTypeUint16:
		return 1
	case types.DataTypeInt32, types.DataTypeUint32:
		return 2
	default:
		return 1
	}
}

// convertRegisterValue setzt dekodierte (vorzeichenbehaftete) Register in den
// Profildatentyp um. 32-Bit Typen sind word-order big-endian zusammengesetzt.
func convertRegisterValue(registers []int16, dataType types.DataType, scaleFactor float64) any {
	if scaleFactor == 0 {
		scaleFactor = 1.0
	}

	switch dataType {
	case types.DataTypeUint16:
		return float64(uint16(registers[0])) * scaleFactor
	case types.DataTypeInt16:
		return float64(registers[0]) * scaleFactor
	case types.DataTypeUint32:
		if len(registers) >= 2 {
			val := uint32(uint16(registers[0]))<<16 | uint32(uint16(registers[1]))
			return float64(val) * scaleFactor
		}
	case types.DataTypeInt32:
		if len(registers) >= 2 {
			val := int32(uint16(registers[0]))<<16 | int32(uint16(registers[1]))
			return float64(val) * scaleFactor
		}
	case types.DataTypeBool:
		return registers[0] != 0
	}

	return registers[0]
}
