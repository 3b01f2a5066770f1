package modbus

import "errors"

// Fehler-Taxonomie des Codecs. Alle Fehler werden unverändert an den Aufrufer
// durchgereicht, nichts wird intern wiederholt.
var (
	// ErrInvalidArgument: Adresse/Anzahl/Wert außerhalb des Protokollbereichs,
	// erkannt bevor Bytes produziert werden.
	ErrInvalidArgument = errors.New("modbus: invalid argument")

	// ErrMalformedResponse: Response zu kurz oder inkonsistent mit den eigenen
	// Length/ByteCount-Feldern.
	ErrMalformedResponse = errors.New("modbus: malformed response")

	// ErrConnectionClosed: Transport meldet End-of-Stream.
	ErrConnectionClosed = errors.New("modbus: connection closed")

	// ErrNotConnected: Operation auf nicht verbundenem Client.
	ErrNotConnected = errors.New("modbus: not connected")
)
