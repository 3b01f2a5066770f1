package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KevinKickass/ModbusCore/internal/modbus"
)

// modbuspoll ist ein interaktiver Diagnose-Master: ein Request pro
// Menüauswahl, eine Transaktion gleichzeitig.

var (
	host    = flag.String("host", "127.0.0.1", "target host")
	port    = flag.Int("port", 502, "target port")
	unitID  = flag.Int("unit", 1, "unit identifier (0-255)")
	timeout = flag.Duration("timeout", 3*time.Second, "request timeout")
)

const menu = `
Function codes:
---------------
 Read coils               = 1  |  Write single coil        = 5
 Read discrete inputs     = 2  |  Write single register    = 6
 Read holding registers   = 3  |  Write multiple coils     = 7
 Read input registers     = 4  |  Write multiple registers = 8
 Exit                     = 0
`

func main() {
	flag.Parse()

	if *unitID < 0 || *unitID > 255 {
		fmt.Fprintln(os.Stderr, "unit identifier out of range")
		os.Exit(2)
	}
	unit := uint8(*unitID)

	client := modbus.NewClient(fmt.Sprintf("%s:%d", *host, *port), *timeout)
	if err := client.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	in := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(menu)
		choice, ok := prompt(in, "Choose function: ")
		if !ok || choice == "0" {
			return
		}

		if err := runChoice(client, unit, in, choice); err != nil {
			reportError(err)
		}
	}
}

func runChoice(client *modbus.Client, unit uint8, in *bufio.Scanner, choice string) error {
	ctx := context.Background()

	switch choice {
	case "1", "2", "3", "4":
		address, err := promptUint16(in, "Choose address: ")
		if err != nil {
			return err
		}

		label := "registers"
		if choice == "1" || choice == "2" {
			label = "coils"
		}
		quantity, err := promptUint16(in, fmt.Sprintf("Choose quantity of %s: ", label))
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			bits, err := client.ReadCoils(ctx, unit, address, quantity)
			if err != nil {
				return err
			}
			printBits(address, bits)
		case "2":
			bits, err := client.ReadDiscreteInputs(ctx, unit, address, quantity)
			if err != nil {
				return err
			}
			printBits(address, bits)
		case "3":
			regs, err := client.ReadHoldingRegisters(ctx, unit, address, quantity)
			if err != nil {
				return err
			}
			printRegisters(address, regs)
		case "4":
			regs, err := client.ReadInputRegisters(ctx, unit, address, quantity)
			if err != nil {
				return err
			}
			printRegisters(address, regs)
		}
		return nil

	case "5":
		address, err := promptUint16(in, "Choose address: ")
		if err != nil {
			return err
		}
		raw, ok := prompt(in, "Set value 0 or 1: ")
		if !ok {
			return errors.New("input closed")
		}
		value, err := parseBit(raw)
		if err != nil {
			return err
		}
		if err := client.WriteSingleCoil(ctx, unit, address, value); err != nil {
			return err
		}
		fmt.Println("Success!")
		return nil

	case "6":
		address, err := promptUint16(in, "Choose address: ")
		if err != nil {
			return err
		}
		raw, ok := prompt(in, "Set value from -32768 to 32767: ")
		if !ok {
			return errors.New("input closed")
		}
		value, err := parseInt16(raw)
		if err != nil {
			return err
		}
		if err := client.WriteSingleRegister(ctx, unit, address, value); err != nil {
			return err
		}
		fmt.Println("Success!")
		return nil

	case "7":
		address, err := promptUint16(in, "Choose address: ")
		if err != nil {
			return err
		}
		raw, ok := prompt(in, "Set value 0 or 1 separately with SPACE: ")
		if !ok {
			return errors.New("input closed")
		}
		values := make([]bool, 0)
		for _, field := range strings.Fields(raw) {
			v, err := parseBit(field)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		if err := client.WriteMultipleCoils(ctx, unit, address, values); err != nil {
			return err
		}
		fmt.Println("Success!")
		return nil

	case "8":
		address, err := promptUint16(in, "Choose address: ")
		if err != nil {
			return err
		}
		raw, ok := prompt(in, "Set value -32768 to 32767 separately with SPACE: ")
		if !ok {
			return errors.New("input closed")
		}
		values := make([]int16, 0)
		for _, field := range strings.Fields(raw) {
			v, err := parseInt16(field)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		if err := client.WriteMultipleRegisters(ctx, unit, address, values); err != nil {
			return err
		}
		fmt.Println("Success!")
		return nil

	default:
		fmt.Println("Unknown command!")
		return nil
	}
}

// reportError unterscheidet für den Operator: Geräteablehnung,
// Verbindungs-/Framing-Fehler und Eingabefehler.
func reportError(err error) {
	if exc, ok := modbus.AsException(err); ok {
		fmt.Printf("Device rejected request: %s\n", exc.Code)
		return
	}
	if errors.Is(err, modbus.ErrInvalidArgument) {
		fmt.Printf("Invalid input: %v\n", err)
		return
	}
	fmt.Printf("Connectivity fault: %v\n", err)
	if errors.Is(err, modbus.ErrConnectionClosed) {
		os.Exit(1)
	}
}

func printBits(address uint16, bits []bool) {
	for i, bit := range bits {
		value := 0
		if bit {
			value = 1
		}
		fmt.Printf("Register %d: %d\n", int(address)+i, value)
	}
}

func printRegisters(address uint16, regs []int16) {
	for i, reg := range regs {
		fmt.Printf("Register %d: %d\n", int(address)+i, reg)
	}
}

func prompt(in *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

func promptUint16(in *bufio.Scanner, label string) (uint16, error) {
	raw, ok := prompt(in, label)
	if !ok {
		return 0, errors.New("input closed")
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a 16-bit unsigned number", modbus.ErrInvalidArgument, raw)
	}
	return uint16(v), nil
}

func parseBit(raw string) (bool, error) {
	switch raw {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q is not 0 or 1", modbus.ErrInvalidArgument, raw)
	}
}

func parseInt16(raw string) (int16, error) {
	v, err := strconv.ParseInt(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a 16-bit signed number", modbus.ErrInvalidArgument, raw)
	}
	return int16(v), nil
}
