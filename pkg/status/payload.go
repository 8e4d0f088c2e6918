// Package status serializes the latest sensor state and delivers it to the
// remote collector.
package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itohio/hidroroll/pkg/config"
	"github.com/itohio/hidroroll/pkg/state"
)

// MaxPayloadSize is the capacity of the per-tick payload buffer.
const MaxPayloadSize = 1024

// ErrPayloadTooLarge is returned when a payload does not fit its buffer.
var ErrPayloadTooLarge = errors.New("payload too large")

// Identity holds the constant device fields of every status.
type Identity struct {
	Fleet int
	Model string
	Op    int
	Group int
}

// IdentityFromConfig copies the identity section of the configuration.
func IdentityFromConfig(cfg config.IdentityConfig) Identity {
	return Identity{
		Fleet: cfg.Fleet,
		Model: cfg.Model,
		Op:    cfg.Op,
		Group: cfg.Group,
	}
}

// Payload is the wire document. Field order is part of the format.
type Payload struct {
	Fleet    int    `json:"fleet"`
	Model    string `json:"model"`
	Lat      int    `json:"lat"`
	Lng      int    `json:"lng"`
	Engaged  bool   `json:"engaged"`
	Pression uint32 `json:"pression"`
	Speed    uint32 `json:"speed"`
	Op       int    `json:"op"`
	Group    int    `json:"group"`
}

// NewPayload combines the device identity with a state snapshot. Position is
// not measured and is always zero.
func NewPayload(id Identity, snap state.Snapshot) Payload {
	return Payload{
		Fleet:    id.Fleet,
		Model:    id.Model,
		Engaged:  snap.Endstop,
		Pression: snap.Pressure,
		Speed:    snap.RPM,
		Op:       id.Op,
		Group:    id.Group,
	}
}

// Encode writes the compact JSON form of p into buf. It fails without writing
// if the document would exceed MaxPayloadSize.
func Encode(buf *bytes.Buffer, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if len(data) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(data), MaxPayloadSize)
	}
	buf.Write(data)
	return nil
}
