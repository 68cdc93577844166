/*
 * Spswitch - A Shortest Path Switching Controller
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
)

const (
	EthernetTypeIPv4 = 0x0800
	EthernetTypeARP  = 0x0806
	EthernetTypeVLAN = 0x8100
	EthernetTypeLLDP = 0x88CC
)

var (
	BroadcastMAC = net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	ZeroMAC      = net.HardwareAddr{0, 0, 0, 0, 0, 0}
)

type Ethernet struct {
	SrcMAC, DstMAC net.HardwareAddr
	Type           uint16
	Payload        []byte
}

func (r Ethernet) MarshalBinary() ([]byte, error) {
	if len(r.SrcMAC) != 6 || len(r.DstMAC) != 6 {
		return nil, errors.New("invalid MAC address")
	}
	if r.Payload == nil {
		return nil, errors.New("nil payload")
	}

	v := make([]byte, 14+len(r.Payload))
	copy(v[0:6], r.DstMAC)
	copy(v[6:12], r.SrcMAC)
	binary.BigEndian.PutUint16(v[12:14], r.Type)
	copy(v[14:], r.Payload)

	return v, nil
}

func (r *Ethernet) UnmarshalBinary(data []byte) error {
	if len(data) < 14 {
		return errors.New("invalid ethernet frame length")
	}

	r.DstMAC = data[0:6]
	r.SrcMAC = data[6:12]
	r.Type = binary.BigEndian.Uint16(data[12:14])
	// IEEE 802.1Q-tagged frame?
	if r.Type == EthernetTypeVLAN {
		if len(data) < 18 {
			return errors.New("invalid 802.1Q frame length")
		}
		r.Type = binary.BigEndian.Uint16(data[16:18])
		r.Payload = data[18:]
	} else {
		r.Payload = data[14:]
	}

	return nil
}

func (r Ethernet) IsBroadcast() bool {
	return bytes.Equal(r.DstMAC, BroadcastMAC)
}

// IsMulticast also returns true for the broadcast address.
func (r Ethernet) IsMulticast() bool {
	return len(r.DstMAC) > 0 && r.DstMAC[0]&0x01 == 0x01
}
