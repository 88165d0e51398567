// Package packet provides the containers for compressed packets.
package packet

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/pool"
)

// NewPool returns a pool of packets; released packets are unreferenced,
// so their payloads are returned to libav immediately.
func NewPool(collectThreshold int) *pool.Pool[astiav.Packet] {
	return pool.New(
		collectThreshold,
		func() (*astiav.Packet, error) {
			pkt := astiav.AllocPacket()
			if pkt == nil {
				return nil, fmt.Errorf("unable to allocate a packet")
			}
			return pkt, nil
		},
		(*astiav.Packet).Free,
		(*astiav.Packet).Unref,
	)
}
