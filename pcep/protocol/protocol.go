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

/*
Package protocol implements the PCEP wire format as defined in RFC 5440
with the stateful extensions of RFC 8231 and RFC 8281.

All messages are a 4-byte common header followed by a sequence of objects;
every object may own TLVs, route objects additionally own sub-objects.
Everything on the wire is big-endian. The usual flow is:

  - receive framed bytes (see the socket package), call DecodeMessage
  - switch on Message.Type and pull objects out with First
  - build replies with the New*Message constructors and EncodeMessage
*/
package protocol

import (
	"encoding/binary"
)

// HeaderSize is the size of the PCEP common header
const HeaderSize = 4

// MaxMessageSize bounds a single PCEP message, length being a uint16
const MaxMessageSize = 65535

// Message is a full PCEP message: common header plus objects.
// Length always includes the 4-byte common header; after DecodeMessage it
// holds the on-wire value, after EncodeMessage the produced size.
type Message struct {
	Version uint8
	Flags   uint8
	Type    MessageType
	Length  uint16
	Objects []Object
	// Encoded is the owned wire image: the received bytes after
	// DecodeMessage, the produced bytes after EncodeMessage
	Encoded []byte
}

// First returns the first object of the given class, or nil
func (m *Message) First(class ObjectClass) Object {
	for _, o := range m.Objects {
		if o.Class() == class {
			return o
		}
	}
	return nil
}

// RequestID returns the request id of the first RP object, 0 if absent
func (m *Message) RequestID() uint32 {
	if rp, ok := m.First(ObjectClassRP).(*RPObject); ok {
		return rp.RequestID
	}
	return 0
}

// PeekLength reads the declared message length from a partial or full
// common header. Used by the framing layer to decide how many bytes a
// frame still needs.
func PeekLength(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, errTruncated("common header", HeaderSize, len(b))
	}
	length := int(binary.BigEndian.Uint16(b[2:]))
	if length < HeaderSize {
		return 0, decodeErrorf(ErrorTypeSessionFailure, ErrorValueUnassigned,
			"message length %d smaller than the common header", length)
	}
	return length, nil
}

// DecodeMessage parses one message from b. b must contain the whole frame;
// trailing bytes beyond the declared length are left untouched.
func DecodeMessage(b []byte) (*Message, error) {
	if len(b) < HeaderSize {
		return nil, errTruncated("common header", HeaderSize, len(b))
	}
	m := &Message{
		Version: b[0] >> 5,
		Flags:   b[0] & 0x1f,
		Type:    MessageType(b[1]),
		Length:  binary.BigEndian.Uint16(b[2:]),
	}
	if m.Version != Version {
		return nil, decodeErrorf(ErrorTypeSessionFailure, ErrorValueUnassigned,
			"unsupported PCEP version %d", m.Version)
	}
	length := int(m.Length)
	if length < HeaderSize {
		return nil, decodeErrorf(ErrorTypeSessionFailure, ErrorValueUnassigned,
			"message length %d smaller than the common header", length)
	}
	if length > len(b) {
		return nil, errTruncated(m.Type.String(), length, len(b))
	}
	pos := HeaderSize
	for pos < length {
		o, n, err := decodeObject(b[pos:length])
		if err != nil {
			return nil, err
		}
		m.Objects = append(m.Objects, o)
		pos += n
	}
	m.Encoded = append([]byte(nil), b[:length]...)
	return m, nil
}

// EncodeMessage serializes m, replacing its owned encoded buffer
func EncodeMessage(m *Message) ([]byte, error) {
	total := HeaderSize
	for _, o := range m.Objects {
		total += objectHeadSize + o.bodyWireLen()
	}
	if total > MaxMessageSize {
		return nil, decodeErrorf(ErrorTypeSessionFailure, ErrorValueUnassigned,
			"message size %d exceeds the protocol maximum", total)
	}
	b := make([]byte, total)
	m.Version = Version
	b[0] = Version<<5 | m.Flags&0x1f
	b[1] = uint8(m.Type)
	binary.BigEndian.PutUint16(b[2:], uint16(total))
	m.Length = uint16(total)
	pos := HeaderSize
	for _, o := range m.Objects {
		n, err := marshalObjectTo(o, b[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
	}
	m.Encoded = b
	return b, nil
}

// NewMessage assembles a message of the given type from objects
func NewMessage(t MessageType, objects ...Object) *Message {
	return &Message{Version: Version, Type: t, Objects: objects}
}

// NewOpenMessage creates an OPEN message carrying one OPEN object
func NewOpenMessage(keepalive, deadTimer, sid uint8, tlvs ...TLV) *Message {
	return NewMessage(MessageOpen, NewOpen(keepalive, deadTimer, sid, tlvs...))
}

// NewKeepAliveMessage creates a KEEPALIVE message, which has no objects
func NewKeepAliveMessage() *Message {
	return NewMessage(MessageKeepAlive)
}

// NewPCReqMessage creates a PCReq from the mandatory RP and END-POINTS
// objects plus any optional objects (LSPA, BANDWIDTH, METRIC, RRO, IRO,
// LOAD-BALANCING), in that order per sec 6.4
func NewPCReqMessage(rp *RPObject, endpoints Object, optional ...Object) *Message {
	objects := append([]Object{rp, endpoints}, optional...)
	return NewMessage(MessagePCReq, objects...)
}

// NewPCRepMessage creates a PCRep from the mandatory RP object plus the
// computed path or NO-PATH objects
func NewPCRepMessage(rp *RPObject, rest ...Object) *Message {
	objects := append([]Object{rp}, rest...)
	return NewMessage(MessagePCRep, objects...)
}

// NewNotifyMessage creates a PCNtf carrying one NOTIFICATION object
func NewNotifyMessage(nt NotificationType, nv NotificationValue) *Message {
	return NewMessage(MessagePCNtf, NewNotify(nt, nv))
}

// NewErrorMessage creates a PCErr carrying one PCEP-ERROR object
func NewErrorMessage(t ErrorType, v ErrorValue) *Message {
	return NewMessage(MessageError, NewError(t, v))
}

// NewCloseMessage creates a CLOSE message carrying one CLOSE object
func NewCloseMessage(reason CloseReason) *Message {
	return NewMessage(MessageClose, NewClose(reason))
}

// NewReportMessage creates a PCRpt (RFC 8231). srp may be nil when the
// report is not a response to an SRP-carrying operation.
func NewReportMessage(srp *SRPObject, lsp *LSPObject, ero *EROObject, optional ...Object) *Message {
	objects := make([]Object, 0, 3+len(optional))
	if srp != nil {
		objects = append(objects, srp)
	}
	objects = append(objects, lsp, ero)
	objects = append(objects, optional...)
	return NewMessage(MessageReport, objects...)
}

// NewUpdateMessage creates a PCUpd (RFC 8231)
func NewUpdateMessage(srp *SRPObject, lsp *LSPObject, ero *EROObject, optional ...Object) *Message {
	objects := append([]Object{srp, lsp, ero}, optional...)
	return NewMessage(MessageUpdate, objects...)
}

// NewInitiateMessage creates a PCInitiate (RFC 8281)
func NewInitiateMessage(srp *SRPObject, lsp *LSPObject, rest ...Object) *Message {
	objects := append([]Object{srp, lsp}, rest...)
	return NewMessage(MessageInitiate, objects...)
}
