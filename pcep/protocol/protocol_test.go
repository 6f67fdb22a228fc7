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

func Test_encodeOpenMessage(t *testing.T) {
	m := NewOpenMessage(30, 120, 0)
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	want := []uint8{
		0x20, 0x01, 0x00, 0x0c,
		0x01, 0x10, 0x00, 0x08,
		0x20, 0x1e, 0x78, 0x00,
	}
	assert.Equal(t, want, b)
	assert.Equal(t, uint16(12), m.Length)

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, MessageOpen, decoded.Type)
	require.Len(t, decoded.Objects, 1)
	open, ok := decoded.Objects[0].(*OpenObject)
	require.True(t, ok)
	assert.Equal(t, uint8(30), open.Keepalive)
	assert.Equal(t, uint8(120), open.DeadTimer)
	assert.Equal(t, uint8(0), open.SID)
	assert.Equal(t, uint16(8), open.Length)
	assert.Equal(t, b, decoded.Encoded)
}

func Test_encodeKeepAlive(t *testing.T) {
	b, err := EncodeMessage(NewKeepAliveMessage())
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x20, 0x02, 0x00, 0x04}, b)

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, MessageKeepAlive, decoded.Type)
	assert.Empty(t, decoded.Objects)
}

func Test_parsePCRepWithERO(t *testing.T) {
	raw := []uint8{
		0x20, 0x04, 0x00, 0x1c,
		// RP, request id 7, priority 3, loose acceptable
		0x02, 0x10, 0x00, 0x0c,
		0x00, 0x00, 0x00, 0x0b,
		0x00, 0x00, 0x00, 0x07,
		// ERO with one loose IPv4 hop 10.0.0.5/32
		0x07, 0x10, 0x00, 0x0c,
		0x81, 0x08, 0x0a, 0x00, 0x00, 0x05, 0x20, 0x00,
	}
	m, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, MessagePCRep, m.Type)
	assert.Equal(t, uint32(7), m.RequestID())
	rp, ok := m.First(ObjectClassRP).(*RPObject)
	require.True(t, ok)
	assert.Equal(t, uint8(3), rp.Priority)
	assert.True(t, rp.FlagLoose)
	ero, ok := m.First(ObjectClassERO).(*EROObject)
	require.True(t, ok)
	require.Len(t, ero.Subobjects, 1)
	hop, ok := ero.Subobjects[0].(*IPv4Subobject)
	require.True(t, ok)
	assert.True(t, hop.Loose)
	assert.Equal(t, net.ParseIP("10.0.0.5").To4(), hop.Addr)
	assert.Equal(t, uint8(32), hop.PrefixLength)

	// re-encode bit-exact
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	assert.Equal(t, raw, b)
}

func Test_roundTripPCReq(t *testing.T) {
	rp := NewRP(3, false, false, true, 7)
	endpoints := NewEndpointsIPv4(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"))
	m := NewPCReqMessage(rp, endpoints,
		NewLSPA(0, 0, 0, 7, 7, true),
		NewBandwidth(125000, false),
		NewMetric(MetricTE, false, true, 42),
		NewLoadBalancing(4, 1000),
	)
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	assert.Equal(t, int(m.Length), len(b))

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	require.Len(t, decoded.Objects, 6)
	assert.Equal(t, m.Objects, decoded.Objects)
}

func Test_roundTripPCRepNoPath(t *testing.T) {
	m := NewPCRepMessage(NewRP(0, false, false, false, 99),
		NewNoPath(NoPathNINoPathFound, false, NoPathErrPCEUnavailable))
	b, err := EncodeMessage(m)
	require.NoError(t, err)

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	np, ok := decoded.First(ObjectClassNoPath).(*NoPathObject)
	require.True(t, ok)
	assert.Equal(t, NoPathNINoPathFound, np.NI)
	require.Len(t, np.TLVs, 1)
	vec, ok := np.TLVs[0].(*NoPathVectorTLV)
	require.True(t, ok)
	assert.Equal(t, NoPathVectorPCEUnavailable, vec.Flags)
}

func Test_roundTripErrorAndClose(t *testing.T) {
	b, err := EncodeMessage(NewErrorMessage(ErrorTypeSessionFailure, ErrorValueOpenWaitTimedOut))
	require.NoError(t, err)
	want := []uint8{
		0x20, 0x06, 0x00, 0x0c,
		0x0d, 0x10, 0x00, 0x08,
		0x00, 0x00, 0x01, 0x02,
	}
	assert.Equal(t, want, b)

	b, err = EncodeMessage(NewCloseMessage(CloseReasonDeadTimer))
	require.NoError(t, err)
	want = []uint8{
		0x20, 0x07, 0x00, 0x0c,
		0x0f, 0x10, 0x00, 0x08,
		0x00, 0x00, 0x00, 0x02,
	}
	assert.Equal(t, want, b)
}

func Test_roundTripNotify(t *testing.T) {
	m := NewNotifyMessage(NotificationPCEOverloaded, NotificationValuePCECurrentlyOverloaded)
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	n, ok := decoded.First(ObjectClassNotify).(*NotifyObject)
	require.True(t, ok)
	assert.Equal(t, NotificationPCEOverloaded, n.NotificationType)
	assert.Equal(t, NotificationValuePCECurrentlyOverloaded, n.NotificationValue)
}

func Test_roundTripReport(t *testing.T) {
	lsp := NewLSP(0xabcde, LSPOperationalUp, true, false, false, true, false,
		&SymbolicPathNameTLV{Name: []byte("lsp-a")})
	ero := NewERO(&SRSubobject{
		NAIType: NAIIPv4Node,
		FlagM:   true,
		SID:     EncodeSRSID(1000, 0, true, 64),
		NAI:     []net.IP{net.ParseIP("192.0.2.1").To4()},
	})
	m := NewReportMessage(NewSRP(17, false), lsp, ero)
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	assert.Equal(t, int(m.Length), len(b))

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	require.Len(t, decoded.Objects, 3)
	srp, ok := decoded.Objects[0].(*SRPObject)
	require.True(t, ok)
	assert.Equal(t, uint32(17), srp.SRPID)
	gotLSP, ok := decoded.Objects[1].(*LSPObject)
	require.True(t, ok)
	assert.Equal(t, uint32(0xabcde), gotLSP.PLSPID)
	assert.Equal(t, LSPOperationalUp, gotLSP.OperationalStatus)
	assert.True(t, gotLSP.FlagD)
	assert.True(t, gotLSP.FlagA)
	require.Len(t, gotLSP.TLVs, 1)
	name, ok := gotLSP.TLVs[0].(*SymbolicPathNameTLV)
	require.True(t, ok)
	assert.Equal(t, []byte("lsp-a"), name.Name)
}

func Test_roundTripSVEC(t *testing.T) {
	m := NewMessage(MessagePCReq, NewSVEC(true, false, true, 1, 2, 3))
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	svec, ok := decoded.First(ObjectClassSVEC).(*SVECObject)
	require.True(t, ok)
	assert.True(t, svec.FlagLinkDiverse)
	assert.False(t, svec.FlagNodeDiverse)
	assert.True(t, svec.FlagSRLGDiverse)
	assert.Equal(t, []uint32{1, 2, 3}, svec.RequestIDs)
}

func Test_roundTripAssociation(t *testing.T) {
	m := NewMessage(MessageReport,
		NewAssociationIPv4(true, AssociationPathProtection, 11, net.ParseIP("203.0.113.5")))
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	assoc, ok := decoded.First(ObjectClassAssociation).(*AssociationIPv4Object)
	require.True(t, ok)
	assert.True(t, assoc.FlagR)
	assert.Equal(t, AssociationPathProtection, assoc.AssociationType)
	assert.Equal(t, uint16(11), assoc.AssociationID)
	assert.Equal(t, net.ParseIP("203.0.113.5").To4(), assoc.Src)

	m6 := NewMessage(MessageReport,
		NewAssociationIPv6(false, AssociationSRPolicy, 12, net.ParseIP("2001:db8::1")))
	b6, err := EncodeMessage(m6)
	require.NoError(t, err)
	decoded6, err := DecodeMessage(b6)
	require.NoError(t, err)
	assoc6, ok := decoded6.First(ObjectClassAssociation).(*AssociationIPv6Object)
	require.True(t, ok)
	assert.Equal(t, AssociationSRPolicy, assoc6.AssociationType)
	assert.Equal(t, net.ParseIP("2001:db8::1"), assoc6.Src)
}

func Test_roundTripEndpointsIPv6(t *testing.T) {
	m := NewPCReqMessage(NewRP(1, true, true, false, 8),
		NewEndpointsIPv6(net.ParseIP("2001:db8::1"), net.ParseIP("2001:db8::2")))
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	ep, ok := decoded.First(ObjectClassEndpoints).(*EndpointsIPv6Object)
	require.True(t, ok)
	assert.Equal(t, net.ParseIP("2001:db8::1"), ep.Src)
	assert.Equal(t, net.ParseIP("2001:db8::2"), ep.Dst)
}

func Test_decodeUnknownObjectClass(t *testing.T) {
	raw := []uint8{
		0x20, 0x05, 0x00, 0x0c,
		0x63, 0x10, 0x00, 0x08,
		0x00, 0x00, 0x00, 0x00,
	}
	_, err := DecodeMessage(raw)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrorTypeUnknownObject, de.ErrorType)
	assert.Equal(t, ErrorValueObjectClass, de.ErrorValue)
	assert.ErrorIs(t, err, ErrUnknownObjectClass)
}

func Test_decodeBadVersion(t *testing.T) {
	raw := []uint8{0x40, 0x02, 0x00, 0x04}
	_, err := DecodeMessage(raw)
	require.Error(t, err)
}

func Test_decodeTruncated(t *testing.T) {
	// declared length larger than the buffer
	raw := []uint8{0x20, 0x02, 0x00, 0x08}
	_, err := DecodeMessage(raw)
	require.Error(t, err)

	// object length beyond the message boundary
	raw = []uint8{
		0x20, 0x01, 0x00, 0x0c,
		0x01, 0x10, 0x00, 0x20,
		0x20, 0x1e, 0x78, 0x00,
	}
	_, err = DecodeMessage(raw)
	require.Error(t, err)

	_, err = DecodeMessage([]uint8{0x20, 0x02})
	require.Error(t, err)
}

func Test_peekLength(t *testing.T) {
	length, err := PeekLength([]uint8{0x20, 0x02, 0x00, 0x04})
	require.NoError(t, err)
	assert.Equal(t, 4, length)

	_, err = PeekLength([]uint8{0x20, 0x02})
	require.Error(t, err)

	_, err = PeekLength([]uint8{0x20, 0x02, 0x00, 0x02})
	require.Error(t, err)
}

func Test_flagsPI(t *testing.T) {
	rp := NewRP(0, false, false, false, 1)
	rp.FlagP = true
	m := NewMessage(MessagePCReq, rp, NewEndpointsIPv4(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2")))
	b, err := EncodeMessage(m)
	require.NoError(t, err)
	// P bit lands next to the object type nibble
	assert.Equal(t, uint8(0x12), b[5])

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)
	gotRP := decoded.First(ObjectClassRP)
	assert.True(t, gotRP.Hdr().FlagP)
	assert.False(t, gotRP.Hdr().FlagI)
}
