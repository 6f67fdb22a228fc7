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
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_symbolicPathNamePadding(t *testing.T) {
	tlv := &SymbolicPathNameTLV{Name: []byte("foo")}
	b := make([]byte, 16)
	n, err := tlv.MarshalBinaryTo(b)
	require.NoError(t, err)
	// 3-byte body padded to the word boundary, length field excludes padding
	want := []uint8{0x00, 0x11, 0x00, 0x03, 0x66, 0x6f, 0x6f, 0x00}
	assert.Equal(t, want, b[:n])

	decoded := &SymbolicPathNameTLV{}
	require.NoError(t, decoded.UnmarshalBinary(want))
	assert.Equal(t, []byte("foo"), decoded.Name)
	assert.Equal(t, uint16(3), decoded.LengthField)
}

func Test_unknownTLVPreserved(t *testing.T) {
	raw := []uint8{
		0x0a, 0xbc, 0x00, 0x05,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x00, 0x00, 0x00,
	}
	tlvs, err := readTLVs(raw)
	require.NoError(t, err)
	require.Len(t, tlvs, 1)
	unknown, ok := tlvs[0].(*UnknownTLV)
	require.True(t, ok)
	assert.Equal(t, TLVType(0x0abc), unknown.Type())
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, unknown.Body)

	// round-trips bit-exact so relay paths stay intact
	b := make([]byte, tlvsWireLen(tlvs))
	n, err := writeTLVs(tlvs, b)
	require.NoError(t, err)
	assert.Equal(t, raw, b[:n])
}

func Test_statefulCapability(t *testing.T) {
	tlv := &StatefulPCECapabilityTLV{Flags: StatefulCapUpdate | StatefulCapInitiate}
	b := make([]byte, 8)
	n, err := tlv.MarshalBinaryTo(b)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x00, 0x10, 0x00, 0x04, 0x00, 0x00, 0x00, 0x21}, b[:n])

	decoded := &StatefulPCECapabilityTLV{}
	require.NoError(t, decoded.UnmarshalBinary(b[:n]))
	assert.Equal(t, tlv.Flags, decoded.Flags)
}

func Test_lspIdentifiers(t *testing.T) {
	tlv := &IPv4LSPIdentifiersTLV{
		SenderAddr:       net.ParseIP("10.0.0.1").To4(),
		LSPID:            5,
		TunnelID:         6,
		ExtendedTunnelID: 7,
		EndpointAddr:     net.ParseIP("10.0.0.2").To4(),
	}
	b := make([]byte, 20)
	n, err := tlv.MarshalBinaryTo(b)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	decoded := &IPv4LSPIdentifiersTLV{}
	require.NoError(t, decoded.UnmarshalBinary(b[:n]))
	assert.Equal(t, tlv, decoded)
}

func Test_srCapabilityAndPST(t *testing.T) {
	sr := &SRPCECapabilityTLV{MSD: 10}
	b := make([]byte, 8)
	n, err := sr.MarshalBinaryTo(b)
	require.NoError(t, err)
	decodedSR := &SRPCECapabilityTLV{}
	require.NoError(t, decodedSR.UnmarshalBinary(b[:n]))
	assert.Equal(t, uint8(10), decodedSR.MSD)

	pst := &PathSetupTypeTLV{PST: PathSetupSR}
	n, err = pst.MarshalBinaryTo(b)
	require.NoError(t, err)
	decodedPST := &PathSetupTypeTLV{}
	require.NoError(t, decodedPST.UnmarshalBinary(b[:n]))
	assert.Equal(t, PathSetupSR, decodedPST.PST)
}

func Test_tlvLengthMismatch(t *testing.T) {
	// LSP-ERROR-CODE promises 4 body bytes, header says 8
	raw := []uint8{0x00, 0x14, 0x00, 0x08, 0x00, 0x00, 0x00, 0x01}
	err := (&LSPErrorCodeTLV{}).UnmarshalBinary(raw)
	require.Error(t, err)

	// body shorter than declared
	raw = []uint8{0x00, 0x14, 0x00, 0x04, 0x00, 0x00}
	err = (&LSPErrorCodeTLV{}).UnmarshalBinary(raw)
	require.Error(t, err)
}

func Test_readTLVsMultiple(t *testing.T) {
	tlvs := []TLV{
		&StatefulPCECapabilityTLV{Flags: StatefulCapUpdate},
		&SymbolicPathNameTLV{Name: []byte("alpha")},
		&UnknownTLV{TLVHead: TLVHead{TLVType: 999}, Body: []byte{0xff}},
	}
	b := make([]byte, tlvsWireLen(tlvs))
	n, err := writeTLVs(tlvs, b)
	require.NoError(t, err)
	require.Equal(t, len(b), n)

	decoded, err := readTLVs(b)
	require.NoError(t, err)
	assert.Equal(t, tlvs, decoded)
}
