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

func Test_encodeSRSID(t *testing.T) {
	sid := EncodeSRSID(1000, 0, true, 64)
	assert.Equal(t, uint32(0x003E8140), sid)
}

func Test_srSubobjectMPLSLabel(t *testing.T) {
	sub := &SRSubobject{
		NAIType: NAIIPv4Node,
		FlagM:   true,
		FlagC:   true,
		SID:     EncodeSRSID(1000, 0, true, 64),
		NAI:     []net.IP{net.ParseIP("192.0.2.1").To4()},
	}
	b := make([]byte, sub.WireLen())
	n, err := sub.MarshalBinaryTo(b)
	require.NoError(t, err)
	want := []uint8{
		0x24, 0x0c, 0x10, 0x03,
		0x00, 0x3e, 0x81, 0x40,
		0xc0, 0x00, 0x02, 0x01,
	}
	assert.Equal(t, want, b[:n])

	decoded := &SRSubobject{}
	require.NoError(t, decoded.UnmarshalBinary(want))
	assert.Equal(t, sub, decoded)
	assert.Equal(t, uint32(1000), decoded.SIDLabel())
	assert.Equal(t, uint8(0), decoded.SIDTC())
	assert.True(t, decoded.SIDBottomOfStack())
	assert.Equal(t, uint8(64), decoded.SIDTTL())
}

func Test_srSubobjectCWithoutM(t *testing.T) {
	sub := &SRSubobject{NAIType: NAIAbsent, FlagC: true, FlagF: true}
	b := make([]byte, 16)
	_, err := sub.MarshalBinaryTo(b)
	require.Error(t, err)

	// C set without M on the wire is a protocol violation
	raw := []uint8{0x24, 0x08, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00}
	err = (&SRSubobject{}).UnmarshalBinary(raw)
	require.Error(t, err)
}

func Test_srSubobjectSIDAbsent(t *testing.T) {
	sub := &SRSubobject{
		NAIType: NAIIPv4Node,
		FlagS:   true,
		NAI:     []net.IP{net.ParseIP("192.0.2.7").To4()},
	}
	b := make([]byte, sub.WireLen())
	n, err := sub.MarshalBinaryTo(b)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	decoded := &SRSubobject{}
	require.NoError(t, decoded.UnmarshalBinary(b[:n]))
	assert.Equal(t, uint32(0), decoded.SID)
	assert.Equal(t, sub.NAI, decoded.NAI)
}

func Test_srSubobjectNAIAdjacencies(t *testing.T) {
	tests := []struct {
		name    string
		naiType NAIType
		nai     []net.IP
		wireLen int
	}{
		{
			name:    "ipv4 adjacency",
			naiType: NAIIPv4Adjacency,
			nai:     []net.IP{net.ParseIP("10.0.0.1").To4(), net.ParseIP("10.0.0.2").To4()},
			wireLen: 2 + 2 + 4 + 8,
		},
		{
			name:    "ipv6 adjacency",
			naiType: NAIIPv6Adjacency,
			nai:     []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("2001:db8::2")},
			wireLen: 2 + 2 + 4 + 32,
		},
		{
			name:    "unnumbered ipv4 adjacency",
			naiType: NAIUnnumberedIPv4Adjacency,
			nai: []net.IP{
				net.ParseIP("10.0.0.1").To4(), net.IPv4(0, 0, 0, 9).To4(),
				net.ParseIP("10.0.0.2").To4(), net.IPv4(0, 0, 0, 12).To4(),
			},
			wireLen: 2 + 2 + 4 + 16,
		},
		{
			name:    "link local ipv6 adjacency",
			naiType: NAILinkLocalIPv6Adjacency,
			nai: []net.IP{
				net.ParseIP("fe80::1"), net.IPv4(0, 0, 0, 9).To4(),
				net.ParseIP("fe80::2"), net.IPv4(0, 0, 0, 12).To4(),
			},
			wireLen: 2 + 2 + 4 + 40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &SRSubobject{NAIType: tt.naiType, FlagM: true, SID: EncodeSRSID(16001, 0, true, 255), NAI: tt.nai}
			require.Equal(t, tt.wireLen, sub.WireLen())
			b := make([]byte, sub.WireLen())
			n, err := sub.MarshalBinaryTo(b)
			require.NoError(t, err)
			decoded := &SRSubobject{}
			require.NoError(t, decoded.UnmarshalBinary(b[:n]))
			assert.Equal(t, sub, decoded)
		})
	}
}

func Test_srSubobjectWrongNAICount(t *testing.T) {
	sub := &SRSubobject{
		NAIType: NAIIPv4Adjacency,
		FlagM:   true,
		SID:     EncodeSRSID(1, 0, true, 64),
		NAI:     []net.IP{net.ParseIP("10.0.0.1").To4()},
	}
	b := make([]byte, 32)
	_, err := sub.MarshalBinaryTo(b)
	require.Error(t, err)
}

func Test_legacySRType(t *testing.T) {
	sub := &SRSubobject{
		LegacyType: true,
		NAIType:    NAIIPv4Node,
		FlagM:      true,
		SID:        EncodeSRSID(99, 0, true, 1),
		NAI:        []net.IP{net.ParseIP("192.0.2.1").To4()},
	}
	b := make([]byte, sub.WireLen())
	n, err := sub.MarshalBinaryTo(b)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), b[0]&0x7f)

	decoded := &SRSubobject{}
	require.NoError(t, decoded.UnmarshalBinary(b[:n]))
	assert.True(t, decoded.LegacyType)
}

func Test_roundTripPlainSubobjects(t *testing.T) {
	subs := []ROSubobject{
		&IPv4Subobject{Loose: true, Addr: net.ParseIP("10.1.2.3").To4(), PrefixLength: 24, LocalProtection: true},
		&IPv6Subobject{Addr: net.ParseIP("2001:db8::42"), PrefixLength: 64},
		&LabelSubobject{GlobalLabel: true, ClassType: 2, Label: 0xabcd},
		&UnnumberedSubobject{RouterID: net.ParseIP("192.0.2.9").To4(), InterfaceID: 77},
		&ASNSubobject{ASN: 65001},
	}
	b := make([]byte, subobjectsWireLen(subs))
	n, err := writeSubobjects(subs, b)
	require.NoError(t, err)
	require.Equal(t, len(b), n)

	decoded, err := readSubobjects(b, true)
	require.NoError(t, err)
	assert.Equal(t, subs, decoded)
}

func Test_rroLooseHopTolerated(t *testing.T) {
	// loose bit set inside an RRO decodes with a warning, not an error
	raw := []uint8{0x81, 0x08, 0x0a, 0x00, 0x00, 0x05, 0x20, 0x00}
	subs, err := readSubobjects(raw, false)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].LooseHop())
}

func Test_subobjectTruncated(t *testing.T) {
	// declared length beyond the buffer
	_, err := readSubobjects([]uint8{0x01, 0x08, 0x0a, 0x00}, true)
	require.Error(t, err)

	// SID missing from an SR sub-object that promises one
	_, err = readSubobjects([]uint8{0x24, 0x04, 0x10, 0x01}, true)
	require.Error(t, err)
}
