package types

import (
	"fmt"
	"strings"
)

// PacketOrder defines which timestamp is the primary sorting key
// of a packet queue; the other one is the secondary key.
type PacketOrder int

const (
	PacketOrderDTSPTS = PacketOrder(iota)
	PacketOrderPTSDTS
)

func (o PacketOrder) String() string {
	switch o {
	case PacketOrderDTSPTS:
		return "dts-pts"
	case PacketOrderPTSDTS:
		return "pts-dts"
	default:
		return fmt.Sprintf("unknown_packet_order_%d", int(o))
	}
}

func (o *PacketOrder) Set(s string) error {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "dts-pts", "dts":
		*o = PacketOrderDTSPTS
	case "pts-dts", "pts":
		*o = PacketOrderPTSDTS
	default:
		return fmt.Errorf("unknown packet order '%s'", s)
	}
	return nil
}

func (o *PacketOrder) Type() string {
	return "packet-order"
}

func (o PacketOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *PacketOrder) UnmarshalText(b []byte) error {
	return o.Set(string(b))
}
