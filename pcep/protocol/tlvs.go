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
	"fmt"
	"net"
)

// TLV abstracts away any PCEP TLV
type TLV interface {
	Type() TLVType
	// WireLen is the body length excluding the 4-byte head and padding
	WireLen() uint16
	MarshalBinaryTo(b []byte) (int, error)
	UnmarshalBinary(b []byte) error
}

const tlvHeadSize = 4

// pad4 rounds n up to the next 4-byte boundary
func pad4(n int) int {
	return (n + 3) &^ 3
}

// TLVHead is the common part of all TLVs.
// LengthField is the body length, excluding the head and any padding.
type TLVHead struct {
	TLVType     TLVType
	LengthField uint16
}

// Type implements TLV interface
func (t TLVHead) Type() TLVType {
	return t.TLVType
}

func tlvHeadMarshalBinaryTo(t *TLVHead, b []byte) {
	binary.BigEndian.PutUint16(b, uint16(t.TLVType))
	binary.BigEndian.PutUint16(b[2:], t.LengthField)
}

func unmarshalTLVHeader(t *TLVHead, b []byte) error {
	if len(b) < tlvHeadSize {
		return errTruncated("TLV header", tlvHeadSize, len(b))
	}
	t.TLVType = TLVType(binary.BigEndian.Uint16(b[0:]))
	t.LengthField = binary.BigEndian.Uint16(b[2:])
	return nil
}

func checkTLVLength(t *TLVHead, l, want int) error {
	if int(t.LengthField) != want {
		return decodeErrorf(ErrorTypeInvalidObjectReception, ErrorValueUnassigned,
			"expected TLV %s to have length %d, got %d in the header", t.TLVType, want, t.LengthField)
	}
	if tlvHeadSize+int(t.LengthField) > l {
		return errTruncated(fmt.Sprintf("TLV %s", t.TLVType), tlvHeadSize+int(t.LengthField), l)
	}
	return nil
}

// writeTLVs marshals TLVs one after another, each padded to a 4-byte boundary
func writeTLVs(tlvs []TLV, b []byte) (int, error) {
	pos := 0
	for _, tlv := range tlvs {
		n, err := tlv.MarshalBinaryTo(b[pos:])
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return pos, nil
}

// tlvsWireLen is the total padded size of a TLV list
func tlvsWireLen(tlvs []TLV) int {
	total := 0
	for _, tlv := range tlvs {
		total += tlvHeadSize + pad4(int(tlv.WireLen()))
	}
	return total
}

// readTLVs parses the TLV region of an object body. Unknown TLV types are
// preserved as UnknownTLV so relay paths round-trip.
func readTLVs(b []byte) ([]TLV, error) {
	var tlvs []TLV
	pos := 0
	for pos+tlvHeadSize <= len(b) {
		tlvType := TLVType(binary.BigEndian.Uint16(b[pos:]))
		var tlv TLV
		switch tlvType {
		case TLVNoPathVector:
			tlv = &NoPathVectorTLV{}
		case TLVStatefulPCECapability:
			tlv = &StatefulPCECapabilityTLV{}
		case TLVSymbolicPathName:
			tlv = &SymbolicPathNameTLV{}
		case TLVIPv4LSPIdentifiers:
			tlv = &IPv4LSPIdentifiersTLV{}
		case TLVLSPErrorCode:
			tlv = &LSPErrorCodeTLV{}
		case TLVSRPCECapability:
			tlv = &SRPCECapabilityTLV{}
		case TLVPathSetupType:
			tlv = &PathSetupTypeTLV{}
		default:
			tlv = &UnknownTLV{}
		}
		if err := tlv.UnmarshalBinary(b[pos:]); err != nil {
			return tlvs, err
		}
		tlvs = append(tlvs, tlv)
		pos += tlvHeadSize + pad4(int(tlv.WireLen()))
	}
	return tlvs, nil
}

// NoPathVectorTLV is the NO-PATH-VECTOR TLV, sec 7.5
type NoPathVectorTLV struct {
	TLVHead
	Flags uint32
}

// NO-PATH-VECTOR flags
const (
	NoPathVectorPCEUnavailable uint32 = 0x80000000
	NoPathVectorUnknownDst     uint32 = 0x40000000
	NoPathVectorUnknownSrc     uint32 = 0x20000000
)

// WireLen implements TLV interface
func (t *NoPathVectorTLV) WireLen() uint16 { return 4 }

// MarshalBinaryTo marshals the TLV into b
func (t *NoPathVectorTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.TLVHead = TLVHead{TLVType: TLVNoPathVector, LengthField: t.WireLen()}
	if len(b) < tlvHeadSize+4 {
		return 0, errTruncated("NO-PATH-VECTOR TLV", tlvHeadSize+4, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint32(b[tlvHeadSize:], t.Flags)
	return tlvHeadSize + 4, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *NoPathVectorTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 4); err != nil {
		return err
	}
	t.Flags = binary.BigEndian.Uint32(b[tlvHeadSize:])
	return nil
}

// StatefulPCECapabilityTLV is from RFC 8231 sec 7.1.1
type StatefulPCECapabilityTLV struct {
	TLVHead
	Flags uint32
}

// STATEFUL-PCE-CAPABILITY flags
const (
	StatefulCapUpdate      uint32 = 0x00000001
	StatefulCapInitiate    uint32 = 0x00000020 // RFC 8281
)

// WireLen implements TLV interface
func (t *StatefulPCECapabilityTLV) WireLen() uint16 { return 4 }

// MarshalBinaryTo marshals the TLV into b
func (t *StatefulPCECapabilityTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.TLVHead = TLVHead{TLVType: TLVStatefulPCECapability, LengthField: t.WireLen()}
	if len(b) < tlvHeadSize+4 {
		return 0, errTruncated("STATEFUL-PCE-CAPABILITY TLV", tlvHeadSize+4, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint32(b[tlvHeadSize:], t.Flags)
	return tlvHeadSize + 4, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *StatefulPCECapabilityTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 4); err != nil {
		return err
	}
	t.Flags = binary.BigEndian.Uint32(b[tlvHeadSize:])
	return nil
}

// SymbolicPathNameTLV is from RFC 8231 sec 7.3.2
type SymbolicPathNameTLV struct {
	TLVHead
	Name []byte
}

// WireLen implements TLV interface
func (t *SymbolicPathNameTLV) WireLen() uint16 { return uint16(len(t.Name)) }

// MarshalBinaryTo marshals the TLV into b
func (t *SymbolicPathNameTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.TLVHead = TLVHead{TLVType: TLVSymbolicPathName, LengthField: t.WireLen()}
	total := tlvHeadSize + pad4(len(t.Name))
	if len(b) < total {
		return 0, errTruncated("SYMBOLIC-PATH-NAME TLV", total, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	copy(b[tlvHeadSize:], t.Name)
	for i := tlvHeadSize + len(t.Name); i < total; i++ {
		b[i] = 0
	}
	return total, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *SymbolicPathNameTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if tlvHeadSize+int(t.LengthField) > len(b) {
		return errTruncated("SYMBOLIC-PATH-NAME TLV", tlvHeadSize+int(t.LengthField), len(b))
	}
	t.Name = append([]byte(nil), b[tlvHeadSize:tlvHeadSize+int(t.LengthField)]...)
	return nil
}

// IPv4LSPIdentifiersTLV is from RFC 8231 sec 7.3.1
type IPv4LSPIdentifiersTLV struct {
	TLVHead
	SenderAddr       net.IP
	LSPID            uint16
	TunnelID         uint16
	ExtendedTunnelID uint32
	EndpointAddr     net.IP
}

// WireLen implements TLV interface
func (t *IPv4LSPIdentifiersTLV) WireLen() uint16 { return 16 }

// MarshalBinaryTo marshals the TLV into b
func (t *IPv4LSPIdentifiersTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.TLVHead = TLVHead{TLVType: TLVIPv4LSPIdentifiers, LengthField: t.WireLen()}
	if len(b) < tlvHeadSize+16 {
		return 0, errTruncated("IPV4-LSP-IDENTIFIERS TLV", tlvHeadSize+16, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	if err := putIPv4(b[tlvHeadSize:], t.SenderAddr); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(b[tlvHeadSize+4:], t.LSPID)
	binary.BigEndian.PutUint16(b[tlvHeadSize+6:], t.TunnelID)
	binary.BigEndian.PutUint32(b[tlvHeadSize+8:], t.ExtendedTunnelID)
	if err := putIPv4(b[tlvHeadSize+12:], t.EndpointAddr); err != nil {
		return 0, err
	}
	return tlvHeadSize + 16, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *IPv4LSPIdentifiersTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 16); err != nil {
		return err
	}
	t.SenderAddr = getIPv4(b[tlvHeadSize:])
	t.LSPID = binary.BigEndian.Uint16(b[tlvHeadSize+4:])
	t.TunnelID = binary.BigEndian.Uint16(b[tlvHeadSize+6:])
	t.ExtendedTunnelID = binary.BigEndian.Uint32(b[tlvHeadSize+8:])
	t.EndpointAddr = getIPv4(b[tlvHeadSize+12:])
	return nil
}

// LSPErrorCodeTLV is from RFC 8231 sec 7.3.3
type LSPErrorCodeTLV struct {
	TLVHead
	ErrorCode uint32
}

// WireLen implements TLV interface
func (t *LSPErrorCodeTLV) WireLen() uint16 { return 4 }

// MarshalBinaryTo marshals the TLV into b
func (t *LSPErrorCodeTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.TLVHead = TLVHead{TLVType: TLVLSPErrorCode, LengthField: t.WireLen()}
	if len(b) < tlvHeadSize+4 {
		return 0, errTruncated("LSP-ERROR-CODE TLV", tlvHeadSize+4, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint32(b[tlvHeadSize:], t.ErrorCode)
	return tlvHeadSize + 4, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *LSPErrorCodeTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 4); err != nil {
		return err
	}
	t.ErrorCode = binary.BigEndian.Uint32(b[tlvHeadSize:])
	return nil
}

// SRPCECapabilityTLV is from draft-ietf-pce-segment-routing-16 sec 5.1.1
type SRPCECapabilityTLV struct {
	TLVHead
	Reserved uint16
	Flags    uint8
	MSD      uint8
}

// WireLen implements TLV interface
func (t *SRPCECapabilityTLV) WireLen() uint16 { return 4 }

// MarshalBinaryTo marshals the TLV into b
func (t *SRPCECapabilityTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.TLVHead = TLVHead{TLVType: TLVSRPCECapability, LengthField: t.WireLen()}
	if len(b) < tlvHeadSize+4 {
		return 0, errTruncated("SR-PCE-CAPABILITY TLV", tlvHeadSize+4, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint16(b[tlvHeadSize:], t.Reserved)
	b[tlvHeadSize+2] = t.Flags
	b[tlvHeadSize+3] = t.MSD
	return tlvHeadSize + 4, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *SRPCECapabilityTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 4); err != nil {
		return err
	}
	t.Reserved = binary.BigEndian.Uint16(b[tlvHeadSize:])
	t.Flags = b[tlvHeadSize+2]
	t.MSD = b[tlvHeadSize+3]
	return nil
}

// PathSetupTypeTLV is from RFC 8408
type PathSetupTypeTLV struct {
	TLVHead
	PST uint8
}

// path setup types
const (
	PathSetupRSVPTE uint8 = 0
	PathSetupSR     uint8 = 1
)

// WireLen implements TLV interface
func (t *PathSetupTypeTLV) WireLen() uint16 { return 4 }

// MarshalBinaryTo marshals the TLV into b
func (t *PathSetupTypeTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.TLVHead = TLVHead{TLVType: TLVPathSetupType, LengthField: t.WireLen()}
	if len(b) < tlvHeadSize+4 {
		return 0, errTruncated("PATH-SETUP-TYPE TLV", tlvHeadSize+4, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	b[tlvHeadSize] = 0
	b[tlvHeadSize+1] = 0
	b[tlvHeadSize+2] = 0
	b[tlvHeadSize+3] = t.PST
	return tlvHeadSize + 4, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *PathSetupTypeTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 4); err != nil {
		return err
	}
	t.PST = b[tlvHeadSize+3]
	return nil
}

// UnknownTLV preserves a TLV we don't have a concrete type for,
// so relay and echo paths round-trip unmodified.
type UnknownTLV struct {
	TLVHead
	Body []byte
}

// WireLen implements TLV interface
func (t *UnknownTLV) WireLen() uint16 { return uint16(len(t.Body)) }

// MarshalBinaryTo marshals the TLV into b
func (t *UnknownTLV) MarshalBinaryTo(b []byte) (int, error) {
	t.LengthField = t.WireLen()
	total := tlvHeadSize + pad4(len(t.Body))
	if len(b) < total {
		return 0, errTruncated("TLV", total, len(b))
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	copy(b[tlvHeadSize:], t.Body)
	for i := tlvHeadSize + len(t.Body); i < total; i++ {
		b[i] = 0
	}
	return total, nil
}

// UnmarshalBinary parses b and populates struct fields
func (t *UnknownTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if tlvHeadSize+int(t.LengthField) > len(b) {
		return errTruncated(fmt.Sprintf("TLV %d", t.TLVType), tlvHeadSize+int(t.LengthField), len(b))
	}
	t.Body = append([]byte(nil), b[tlvHeadSize:tlvHeadSize+int(t.LengthField)]...)
	return nil
}

// putIPv4 writes a 4-byte IPv4 address into b
func putIPv4(b []byte, ip net.IP) error {
	v4 := ip.To4()
	if v4 == nil {
		return fmt.Errorf("%v is not an IPv4 address", ip)
	}
	copy(b, v4)
	return nil
}

// getIPv4 reads a 4-byte IPv4 address from b
func getIPv4(b []byte) net.IP {
	return net.IPv4(b[0], b[1], b[2], b[3]).To4()
}

// putIPv6 writes a 16-byte IPv6 address into b
func putIPv6(b []byte, ip net.IP) error {
	v6 := ip.To16()
	if v6 == nil {
		return fmt.Errorf("%v is not an IP address", ip)
	}
	copy(b, v6)
	return nil
}

// getIPv6 reads a 16-byte IPv6 address from b
func getIPv6(b []byte) net.IP {
	ip := make(net.IP, net.IPv6len)
	copy(ip, b)
	return ip
}
