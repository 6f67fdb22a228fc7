/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package protocol

import (
	"encoding/binary"
	"net"

	log "github.com/sirupsen/logrus"
)

// ROSubobject abstracts away any route-object sub-object.
// The first wire byte is (L << 7) | type, the second the total sub-object
// length including these two bytes.
type ROSubobject interface {
	SubobjectType() ROSubobjectType
	// LooseHop is the L bit. Only meaningful in ERO and IRO,
	// must be false in RRO.
	LooseHop() bool
	// WireLen is the total sub-object size including the 2-byte head
	WireLen() int
	MarshalBinaryTo(b []byte) (int, error)
	UnmarshalBinary(b []byte) error
}

const subobjHeadSize = 2

func subobjHeadMarshalBinaryTo(b []byte, loose bool, t ROSubobjectType, length int) {
	b[0] = uint8(t) & 0x7f
	if loose {
		b[0] |= 0x80
	}
	b[1] = uint8(length)
}

func unmarshalSubobjHead(b []byte) (loose bool, t ROSubobjectType, length int, err error) {
	if len(b) < subobjHeadSize {
		return false, 0, 0, errTruncated("RO sub-object header", subobjHeadSize, len(b))
	}
	loose = b[0]&0x80 != 0
	t = ROSubobjectType(b[0] & 0x7f)
	length = int(b[1])
	if length < subobjHeadSize || length > len(b) {
		return false, 0, 0, errTruncated("RO sub-object", length, len(b))
	}
	return loose, t, length, nil
}

// readSubobjects parses the sub-object region of an RO object body.
// allowLoose is false for RRO, where the L bit must be zero; a set bit is
// logged and tolerated as sec 4 of RFC 3209 asks receivers to be liberal.
func readSubobjects(b []byte, allowLoose bool) ([]ROSubobject, error) {
	var subs []ROSubobject
	pos := 0
	for pos+subobjHeadSize <= len(b) {
		loose, t, length, err := unmarshalSubobjHead(b[pos:])
		if err != nil {
			return subs, err
		}
		if loose && !allowLoose {
			log.Warningf("loose-hop bit set on RRO sub-object %s, ignoring", t)
		}
		var sub ROSubobject
		switch t {
		case ROSubobjectIPv4:
			sub = &IPv4Subobject{}
		case ROSubobjectIPv6:
			sub = &IPv6Subobject{}
		case ROSubobjectLabel:
			sub = &LabelSubobject{}
		case ROSubobjectUnnum:
			sub = &UnnumberedSubobject{}
		case ROSubobjectASN:
			sub = &ASNSubobject{}
		case ROSubobjectSR, ROSubobjectSRDraft07:
			sub = &SRSubobject{LegacyType: t == ROSubobjectSRDraft07}
		default:
			return subs, decodeErrorf(ErrorTypeNotSupportedObject, ErrorValueObjectType,
				"unsupported RO sub-object type %d", uint8(t))
		}
		if err := sub.UnmarshalBinary(b[pos : pos+length]); err != nil {
			return subs, err
		}
		subs = append(subs, sub)
		pos += length
	}
	return subs, nil
}

func writeSubobjects(subs []ROSubobject, b []byte) (int, error) {
	pos := 0
	for _, sub := range subs {
		n, err := sub.MarshalBinaryTo(b[pos:])
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return pos, nil
}

func subobjectsWireLen(subs []ROSubobject) int {
	total := 0
	for _, sub := range subs {
		total += sub.WireLen()
	}
	return total
}

// IPv4Subobject is the IPv4 prefix sub-object, RFC 3209 sec 4.3.3.1
type IPv4Subobject struct {
	Loose           bool
	Addr            net.IP
	PrefixLength    uint8
	LocalProtection bool
}

// SubobjectType implements ROSubobject interface
func (s *IPv4Subobject) SubobjectType() ROSubobjectType { return ROSubobjectIPv4 }

// LooseHop implements ROSubobject interface
func (s *IPv4Subobject) LooseHop() bool { return s.Loose }

// WireLen implements ROSubobject interface
func (s *IPv4Subobject) WireLen() int { return subobjHeadSize + 6 }

// MarshalBinaryTo marshals the sub-object into b
func (s *IPv4Subobject) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < s.WireLen() {
		return 0, errTruncated("IPv4 sub-object", s.WireLen(), len(b))
	}
	subobjHeadMarshalBinaryTo(b, s.Loose, ROSubobjectIPv4, s.WireLen())
	if err := putIPv4(b[2:], s.Addr); err != nil {
		return 0, err
	}
	b[6] = s.PrefixLength
	b[7] = 0
	if s.LocalProtection {
		b[7] |= 0x01
	}
	return s.WireLen(), nil
}

// UnmarshalBinary parses b and populates struct fields
func (s *IPv4Subobject) UnmarshalBinary(b []byte) error {
	loose, _, length, err := unmarshalSubobjHead(b)
	if err != nil {
		return err
	}
	if length < s.WireLen() {
		return errTruncated("IPv4 sub-object", s.WireLen(), length)
	}
	s.Loose = loose
	s.Addr = getIPv4(b[2:])
	s.PrefixLength = b[6]
	s.LocalProtection = b[7]&0x01 != 0
	return nil
}

// IPv6Subobject is the IPv6 prefix sub-object, RFC 3209 sec 4.3.3.2
type IPv6Subobject struct {
	Loose           bool
	Addr            net.IP
	PrefixLength    uint8
	LocalProtection bool
}

// SubobjectType implements ROSubobject interface
func (s *IPv6Subobject) SubobjectType() ROSubobjectType { return ROSubobjectIPv6 }

// LooseHop implements ROSubobject interface
func (s *IPv6Subobject) LooseHop() bool { return s.Loose }

// WireLen implements ROSubobject interface
func (s *IPv6Subobject) WireLen() int { return subobjHeadSize + 18 }

// MarshalBinaryTo marshals the sub-object into b
func (s *IPv6Subobject) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < s.WireLen() {
		return 0, errTruncated("IPv6 sub-object", s.WireLen(), len(b))
	}
	subobjHeadMarshalBinaryTo(b, s.Loose, ROSubobjectIPv6, s.WireLen())
	if err := putIPv6(b[2:], s.Addr); err != nil {
		return 0, err
	}
	b[18] = s.PrefixLength
	b[19] = 0
	if s.LocalProtection {
		b[19] |= 0x01
	}
	return s.WireLen(), nil
}

// UnmarshalBinary parses b and populates struct fields
func (s *IPv6Subobject) UnmarshalBinary(b []byte) error {
	loose, _, length, err := unmarshalSubobjHead(b)
	if err != nil {
		return err
	}
	if length < s.WireLen() {
		return errTruncated("IPv6 sub-object", s.WireLen(), length)
	}
	s.Loose = loose
	s.Addr = getIPv6(b[2:])
	s.PrefixLength = b[18]
	s.LocalProtection = b[19]&0x01 != 0
	return nil
}

// LabelSubobject is the label sub-object, RFC 3209 sec 4.3.3.3
type LabelSubobject struct {
	Loose       bool
	GlobalLabel bool
	ClassType   uint8
	Label       uint32
}

// SubobjectType implements ROSubobject interface
func (s *LabelSubobject) SubobjectType() ROSubobjectType { return ROSubobjectLabel }

// LooseHop implements ROSubobject interface
func (s *LabelSubobject) LooseHop() bool { return s.Loose }

// WireLen implements ROSubobject interface
func (s *LabelSubobject) WireLen() int { return subobjHeadSize + 6 }

// MarshalBinaryTo marshals the sub-object into b
func (s *LabelSubobject) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < s.WireLen() {
		return 0, errTruncated("label sub-object", s.WireLen(), len(b))
	}
	subobjHeadMarshalBinaryTo(b, s.Loose, ROSubobjectLabel, s.WireLen())
	b[2] = 0
	if s.GlobalLabel {
		b[2] |= 0x01
	}
	b[3] = s.ClassType
	binary.BigEndian.PutUint32(b[4:], s.Label)
	return s.WireLen(), nil
}

// UnmarshalBinary parses b and populates struct fields
func (s *LabelSubobject) UnmarshalBinary(b []byte) error {
	loose, _, length, err := unmarshalSubobjHead(b)
	if err != nil {
		return err
	}
	if length < s.WireLen() {
		return errTruncated("label sub-object", s.WireLen(), length)
	}
	s.Loose = loose
	s.GlobalLabel = b[2]&0x01 != 0
	s.ClassType = b[3]
	s.Label = binary.BigEndian.Uint32(b[4:])
	return nil
}

// UnnumberedSubobject is the unnumbered interface ID sub-object, RFC 3477 sec 4
type UnnumberedSubobject struct {
	Loose       bool
	RouterID    net.IP
	InterfaceID uint32
}

// SubobjectType implements ROSubobject interface
func (s *UnnumberedSubobject) SubobjectType() ROSubobjectType { return ROSubobjectUnnum }

// LooseHop implements ROSubobject interface
func (s *UnnumberedSubobject) LooseHop() bool { return s.Loose }

// WireLen implements ROSubobject interface
func (s *UnnumberedSubobject) WireLen() int { return subobjHeadSize + 10 }

// MarshalBinaryTo marshals the sub-object into b
func (s *UnnumberedSubobject) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < s.WireLen() {
		return 0, errTruncated("unnumbered sub-object", s.WireLen(), len(b))
	}
	subobjHeadMarshalBinaryTo(b, s.Loose, ROSubobjectUnnum, s.WireLen())
	b[2] = 0
	b[3] = 0
	if err := putIPv4(b[4:], s.RouterID); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(b[8:], s.InterfaceID)
	return s.WireLen(), nil
}

// UnmarshalBinary parses b and populates struct fields
func (s *UnnumberedSubobject) UnmarshalBinary(b []byte) error {
	loose, _, length, err := unmarshalSubobjHead(b)
	if err != nil {
		return err
	}
	if length < s.WireLen() {
		return errTruncated("unnumbered sub-object", s.WireLen(), length)
	}
	s.Loose = loose
	s.RouterID = getIPv4(b[4:])
	s.InterfaceID = binary.BigEndian.Uint32(b[8:])
	return nil
}

// ASNSubobject is the autonomous system number sub-object, RFC 3209 sec 4.3.3.4
type ASNSubobject struct {
	Loose bool
	ASN   uint16
}

// SubobjectType implements ROSubobject interface
func (s *ASNSubobject) SubobjectType() ROSubobjectType { return ROSubobjectASN }

// LooseHop implements ROSubobject interface
func (s *ASNSubobject) LooseHop() bool { return s.Loose }

// WireLen implements ROSubobject interface
func (s *ASNSubobject) WireLen() int { return subobjHeadSize + 2 }

// MarshalBinaryTo marshals the sub-object into b
func (s *ASNSubobject) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < s.WireLen() {
		return 0, errTruncated("ASN sub-object", s.WireLen(), len(b))
	}
	subobjHeadMarshalBinaryTo(b, s.Loose, ROSubobjectASN, s.WireLen())
	binary.BigEndian.PutUint16(b[2:], s.ASN)
	return s.WireLen(), nil
}

// UnmarshalBinary parses b and populates struct fields
func (s *ASNSubobject) UnmarshalBinary(b []byte) error {
	loose, _, length, err := unmarshalSubobjHead(b)
	if err != nil {
		return err
	}
	if length < s.WireLen() {
		return errTruncated("ASN sub-object", s.WireLen(), length)
	}
	s.Loose = loose
	s.ASN = binary.BigEndian.Uint16(b[2:])
	return nil
}

// SR sub-object flags, draft-ietf-pce-segment-routing-16 sec 5.2.1
const (
	srFlagM uint16 = 0x001 // SID is an MPLS label stack entry
	srFlagC uint16 = 0x002 // TC/S/TTL fields of the label are significant
	srFlagS uint16 = 0x004 // SID absent
	srFlagF uint16 = 0x008 // NAI absent
)

// EncodeSRSID builds the 32-bit SID field as an MPLS label stack entry
func EncodeSRSID(label uint32, tc uint8, bottomOfStack bool, ttl uint8) uint32 {
	sid := (label << 12) & 0xfffff000
	sid |= (uint32(tc) << 9) & 0x00000e00
	if bottomOfStack {
		sid |= 0x00000100
	}
	return sid | uint32(ttl)
}

// SRSubobject is the segment-routing sub-object,
// draft-ietf-pce-segment-routing-16 sec 5.2.1.
// The SID field is present unless FlagS is set, the NAI unless FlagF is set.
type SRSubobject struct {
	Loose bool
	// LegacyType makes the sub-object encode as the draft-07 type value
	LegacyType bool
	NAIType    NAIType
	FlagF      bool
	FlagS      bool
	FlagC      bool
	FlagM      bool
	SID        uint32
	// NAI is the ordered address list; element count and width
	// depend on NAIType, interface ids travel as 4-byte entries
	NAI []net.IP
}

// naiElementWidths returns the wire widths of the NAI list per NAI type
func naiElementWidths(t NAIType) []int {
	switch t {
	case NAIIPv4Node:
		return []int{4}
	case NAIIPv6Node:
		return []int{16}
	case NAIIPv4Adjacency:
		return []int{4, 4}
	case NAIIPv6Adjacency:
		return []int{16, 16}
	case NAIUnnumberedIPv4Adjacency:
		return []int{4, 4, 4, 4}
	case NAILinkLocalIPv6Adjacency:
		return []int{16, 4, 16, 4}
	default:
		return nil
	}
}

// SubobjectType implements ROSubobject interface
func (s *SRSubobject) SubobjectType() ROSubobjectType {
	if s.LegacyType {
		return ROSubobjectSRDraft07
	}
	return ROSubobjectSR
}

// LooseHop implements ROSubobject interface
func (s *SRSubobject) LooseHop() bool { return s.Loose }

// SIDLabel extracts the 20-bit label when FlagM is set
func (s *SRSubobject) SIDLabel() uint32 { return (s.SID & 0xfffff000) >> 12 }

// SIDTC extracts the 3-bit traffic class when FlagM is set
func (s *SRSubobject) SIDTC() uint8 { return uint8((s.SID & 0x00000e00) >> 9) }

// SIDBottomOfStack extracts the S bit of the label stack entry when FlagM is set
func (s *SRSubobject) SIDBottomOfStack() bool { return s.SID&0x00000100 != 0 }

// SIDTTL extracts the TTL when FlagM is set
func (s *SRSubobject) SIDTTL() uint8 { return uint8(s.SID & 0xff) }

// WireLen implements ROSubobject interface
func (s *SRSubobject) WireLen() int {
	l := subobjHeadSize + 2
	if !s.FlagS {
		l += 4
	}
	if !s.FlagF {
		for _, w := range naiElementWidths(s.NAIType) {
			l += w
		}
	}
	return l
}

func (s *SRSubobject) flags() uint16 {
	var f uint16
	if s.FlagM {
		f |= srFlagM
	}
	if s.FlagC {
		f |= srFlagC
	}
	if s.FlagS {
		f |= srFlagS
	}
	if s.FlagF {
		f |= srFlagF
	}
	return f
}

// MarshalBinaryTo marshals the sub-object into b
func (s *SRSubobject) MarshalBinaryTo(b []byte) (int, error) {
	if !s.FlagM && s.FlagC {
		return 0, decodeErrorf(ErrorTypeInvalidObjectReception, ErrorValueUnassigned,
			"SR sub-object C flag set without M flag")
	}
	total := s.WireLen()
	if len(b) < total {
		return 0, errTruncated("SR sub-object", total, len(b))
	}
	subobjHeadMarshalBinaryTo(b, s.Loose, s.SubobjectType(), total)
	flags := s.flags()
	b[2] = uint8(s.NAIType)<<4 | uint8(flags>>8)&0x0f
	b[3] = uint8(flags)
	pos := 4
	if !s.FlagS {
		binary.BigEndian.PutUint32(b[pos:], s.SID)
		pos += 4
	}
	if !s.FlagF {
		widths := naiElementWidths(s.NAIType)
		if len(s.NAI) != len(widths) {
			return 0, decodeErrorf(ErrorTypeInvalidObjectReception, ErrorValueUnassigned,
				"SR sub-object NAI %s needs %d addresses, have %d", s.NAIType, len(widths), len(s.NAI))
		}
		for i, w := range widths {
			var err error
			if w == 4 {
				err = putIPv4(b[pos:], s.NAI[i])
			} else {
				err = putIPv6(b[pos:], s.NAI[i])
			}
			if err != nil {
				return 0, err
			}
			pos += w
		}
	}
	return total, nil
}

// UnmarshalBinary parses b and populates struct fields
func (s *SRSubobject) UnmarshalBinary(b []byte) error {
	loose, t, length, err := unmarshalSubobjHead(b)
	if err != nil {
		return err
	}
	if length < subobjHeadSize+2 {
		return errTruncated("SR sub-object", subobjHeadSize+2, length)
	}
	s.Loose = loose
	s.LegacyType = t == ROSubobjectSRDraft07
	s.NAIType = NAIType(b[2] >> 4)
	flags := uint16(b[2]&0x0f)<<8 | uint16(b[3])
	s.FlagM = flags&srFlagM != 0
	s.FlagC = flags&srFlagC != 0
	s.FlagS = flags&srFlagS != 0
	s.FlagF = flags&srFlagF != 0
	if !s.FlagM && s.FlagC {
		return decodeErrorf(ErrorTypeInvalidObjectReception, ErrorValueUnassigned,
			"SR sub-object C flag set without M flag")
	}
	pos := 4
	if !s.FlagS {
		if pos+4 > length {
			return errTruncated("SR sub-object SID", pos+4, length)
		}
		s.SID = binary.BigEndian.Uint32(b[pos:])
		pos += 4
	}
	s.NAI = nil
	if !s.FlagF {
		for _, w := range naiElementWidths(s.NAIType) {
			if pos+w > length {
				return errTruncated("SR sub-object NAI", pos+w, length)
			}
			if w == 4 {
				s.NAI = append(s.NAI, getIPv4(b[pos:]))
			} else {
				s.NAI = append(s.NAI, getIPv6(b[pos:]))
			}
			pos += w
		}
	}
	return nil
}
