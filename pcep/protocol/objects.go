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
	"math"
	"net"
)

const objectHeadSize = 4

// object header flag bits
const (
	objectFlagI = 0x01
	objectFlagP = 0x02
)

// Object abstracts away any PCEP object
type Object interface {
	Class() ObjectClass
	ObjectType() uint8
	Hdr() *ObjectHeader
	// bodyWireLen is the body size excluding the 4-byte object header,
	// always a multiple of 4
	bodyWireLen() int
	marshalBodyTo(b []byte) (int, error)
	unmarshalBody(b []byte) error
}

// ObjectHeader is the part of the common object header shared by all
// objects, plus the TLV list the object owns.
// Length includes the 4-byte header; on decode it holds the on-wire value.
type ObjectHeader struct {
	// FlagP is the processing-rule bit
	FlagP bool
	// FlagI is the ignore bit
	FlagI  bool
	Length uint16
	TLVs   []TLV
}

// Hdr implements Object interface
func (h *ObjectHeader) Hdr() *ObjectHeader { return h }

// marshalObjectTo writes the full object (header, body, TLVs) into b
func marshalObjectTo(o Object, b []byte) (int, error) {
	total := objectHeadSize + o.bodyWireLen()
	if len(b) < total {
		return 0, errTruncated(o.Class().String(), total, len(b))
	}
	h := o.Hdr()
	b[0] = uint8(o.Class())
	fl := o.ObjectType() << 4
	if h.FlagP {
		fl |= objectFlagP
	}
	if h.FlagI {
		fl |= objectFlagI
	}
	b[1] = fl
	binary.BigEndian.PutUint16(b[2:], uint16(total))
	h.Length = uint16(total)
	n, err := o.marshalBodyTo(b[objectHeadSize:total])
	if err != nil {
		return 0, err
	}
	if objectHeadSize+n != total {
		return 0, decodeErrorf(ErrorTypeInvalidObjectReception, ErrorValueUnassigned,
			"%s body produced %d bytes, declared %d", o.Class(), n, total-objectHeadSize)
	}
	return total, nil
}

// decodeObject parses one object at the start of b, returning it and the
// number of bytes consumed
func decodeObject(b []byte) (Object, int, error) {
	if len(b) < objectHeadSize {
		return nil, 0, errTruncated("object header", objectHeadSize, len(b))
	}
	class := ObjectClass(b[0])
	otype := b[1] >> 4
	length := int(binary.BigEndian.Uint16(b[2:]))
	if length < objectHeadSize || length > len(b) {
		return nil, 0, decodeErrorf(ErrorTypeInvalidObjectReception, ErrorValueUnassigned,
			"%s object length %d out of bounds (%d bytes left)", class, length, len(b))
	}
	var o Object
	switch class {
	case ObjectClassOpen:
		o = &OpenObject{}
	case ObjectClassRP:
		o = &RPObject{}
	case ObjectClassNoPath:
		o = &NoPathObject{}
	case ObjectClassEndpoints:
		switch otype {
		case ObjectTypeEndpointsIPv4:
			o = &EndpointsIPv4Object{}
		case ObjectTypeEndpointsIPv6:
			o = &EndpointsIPv6Object{}
		default:
			return nil, 0, decodeErrorf(ErrorTypeUnknownObject, ErrorValueObjectType,
				"unknown ENDPOINTS object type %d", otype)
		}
	case ObjectClassBandwidth:
		o = &BandwidthObject{TELSP: otype == ObjectTypeBandwidthTELSP}
	case ObjectClassMetric:
		o = &MetricObject{}
	case ObjectClassERO:
		o = &EROObject{}
	case ObjectClassRRO:
		o = &RROObject{}
	case ObjectClassLSPA:
		o = &LSPAObject{}
	case ObjectClassIRO:
		o = &IROObject{}
	case ObjectClassSVEC:
		o = &SVECObject{}
	case ObjectClassNotify:
		o = &NotifyObject{}
	case ObjectClassError:
		o = &ErrorObject{}
	case ObjectClassLoadBalancing:
		o = &LoadBalancingObject{}
	case ObjectClassClose:
		o = &CloseObject{}
	case ObjectClassLSP:
		o = &LSPObject{}
	case ObjectClassSRP:
		o = &SRPObject{}
	case ObjectClassAssociation:
		switch otype {
		case ObjectTypeAssociationIPv4:
			o = &AssociationIPv4Object{}
		case ObjectTypeAssociationIPv6:
			o = &AssociationIPv6Object{}
		default:
			return nil, 0, decodeErrorf(ErrorTypeUnknownObject, ErrorValueObjectType,
				"unknown ASSOCIATION object type %d", otype)
		}
	default:
		return nil, 0, decodeErrorf(ErrorTypeUnknownObject, ErrorValueObjectClass,
			"unknown object class %d", uint8(class))
	}
	h := o.Hdr()
	h.FlagP = b[1]&objectFlagP != 0
	h.FlagI = b[1]&objectFlagI != 0
	h.Length = uint16(length)
	if err := o.unmarshalBody(b[objectHeadSize:length]); err != nil {
		return nil, 0, err
	}
	return o, length, nil
}

// OpenObject is the OPEN object, sec 7.3
type OpenObject struct {
	ObjectHeader
	Keepalive uint8
	DeadTimer uint8
	SID       uint8
}

// NewOpen creates an OPEN object with the given session values
func NewOpen(keepalive, deadTimer, sid uint8, tlvs ...TLV) *OpenObject {
	return &OpenObject{ObjectHeader: ObjectHeader{TLVs: tlvs}, Keepalive: keepalive, DeadTimer: deadTimer, SID: sid}
}

// Class implements Object interface
func (o *OpenObject) Class() ObjectClass { return ObjectClassOpen }

// ObjectType implements Object interface
func (o *OpenObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *OpenObject) bodyWireLen() int { return 4 + tlvsWireLen(o.TLVs) }

func (o *OpenObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = Version << 5
	b[1] = o.Keepalive
	b[2] = o.DeadTimer
	b[3] = o.SID
	n, err := writeTLVs(o.TLVs, b[4:])
	return 4 + n, err
}

func (o *OpenObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("OPEN body", 4, len(b))
	}
	if v := b[0] >> 5; v != Version {
		return decodeErrorf(ErrorTypeSessionFailure, ErrorValueInvalidOpenMessage,
			"unsupported PCEP version %d in OPEN", v)
	}
	o.Keepalive = b[1]
	o.DeadTimer = b[2]
	o.SID = b[3]
	var err error
	o.TLVs, err = readTLVs(b[4:])
	return err
}

// RP object flag bits, sec 7.4.1
const (
	rpFlagReopt         = 0x20
	rpFlagBidirectional = 0x10
	rpFlagLoose         = 0x08
)

// MaxRPPriority is the largest value of the 3-bit Priority field
const MaxRPPriority = 0x07

// RPObject is the Request Parameters object, sec 7.4
type RPObject struct {
	ObjectHeader
	Priority           uint8
	FlagReoptimization bool
	FlagBidirectional  bool
	// FlagLoose is the O bit: when set, a loose path is acceptable
	FlagLoose bool
	RequestID uint32
}

// NewRP creates an RP object
func NewRP(priority uint8, reopt, bidirectional, loose bool, requestID uint32, tlvs ...TLV) *RPObject {
	return &RPObject{
		ObjectHeader:       ObjectHeader{TLVs: tlvs},
		Priority:           priority & MaxRPPriority,
		FlagReoptimization: reopt,
		FlagBidirectional:  bidirectional,
		FlagLoose:          loose,
		RequestID:          requestID,
	}
}

// Class implements Object interface
func (o *RPObject) Class() ObjectClass { return ObjectClassRP }

// ObjectType implements Object interface
func (o *RPObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *RPObject) bodyWireLen() int { return 8 + tlvsWireLen(o.TLVs) }

func (o *RPObject) marshalBodyTo(b []byte) (int, error) {
	var flags uint32
	if o.FlagReoptimization {
		flags |= rpFlagReopt
	}
	if o.FlagBidirectional {
		flags |= rpFlagBidirectional
	}
	if o.FlagLoose {
		flags |= rpFlagLoose
	}
	flags |= uint32(o.Priority & MaxRPPriority)
	binary.BigEndian.PutUint32(b, flags)
	binary.BigEndian.PutUint32(b[4:], o.RequestID)
	n, err := writeTLVs(o.TLVs, b[8:])
	return 8 + n, err
}

func (o *RPObject) unmarshalBody(b []byte) error {
	if len(b) < 8 {
		return errTruncated("RP body", 8, len(b))
	}
	flags := binary.BigEndian.Uint32(b)
	o.FlagReoptimization = flags&rpFlagReopt != 0
	o.FlagBidirectional = flags&rpFlagBidirectional != 0
	o.FlagLoose = flags&rpFlagLoose != 0
	o.Priority = uint8(flags & MaxRPPriority)
	o.RequestID = binary.BigEndian.Uint32(b[4:])
	var err error
	o.TLVs, err = readTLVs(b[8:])
	return err
}

// NoPathObject is the NO-PATH object, sec 7.5
type NoPathObject struct {
	ObjectHeader
	NI NoPathNI
	// FlagC indicates the unsatisfied constraints are included as objects
	FlagC bool
}

// NewNoPath creates a NO-PATH object; a non-zero errCode attaches the
// matching NO-PATH-VECTOR TLV
func NewNoPath(ni NoPathNI, flagC bool, errCode NoPathErrCode) *NoPathObject {
	o := &NoPathObject{NI: ni, FlagC: flagC}
	switch errCode {
	case NoPathErrPCEUnavailable:
		o.TLVs = append(o.TLVs, &NoPathVectorTLV{Flags: NoPathVectorPCEUnavailable})
	case NoPathErrUnknownDst:
		o.TLVs = append(o.TLVs, &NoPathVectorTLV{Flags: NoPathVectorUnknownDst})
	case NoPathErrUnknownSrc:
		o.TLVs = append(o.TLVs, &NoPathVectorTLV{Flags: NoPathVectorUnknownSrc})
	}
	return o
}

// Class implements Object interface
func (o *NoPathObject) Class() ObjectClass { return ObjectClassNoPath }

// ObjectType implements Object interface
func (o *NoPathObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *NoPathObject) bodyWireLen() int { return 4 + tlvsWireLen(o.TLVs) }

func (o *NoPathObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = uint8(o.NI)
	var flags uint16
	if o.FlagC {
		flags |= 0x8000
	}
	binary.BigEndian.PutUint16(b[1:], flags)
	b[3] = 0
	n, err := writeTLVs(o.TLVs, b[4:])
	return 4 + n, err
}

func (o *NoPathObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("NO-PATH body", 4, len(b))
	}
	o.NI = NoPathNI(b[0])
	o.FlagC = binary.BigEndian.Uint16(b[1:])&0x8000 != 0
	var err error
	o.TLVs, err = readTLVs(b[4:])
	return err
}

// EndpointsIPv4Object is the END-POINTS object for IPv4, sec 7.6
type EndpointsIPv4Object struct {
	ObjectHeader
	Src net.IP
	Dst net.IP
}

// NewEndpointsIPv4 creates an IPv4 END-POINTS object
func NewEndpointsIPv4(src, dst net.IP) *EndpointsIPv4Object {
	return &EndpointsIPv4Object{Src: src.To4(), Dst: dst.To4()}
}

// Class implements Object interface
func (o *EndpointsIPv4Object) Class() ObjectClass { return ObjectClassEndpoints }

// ObjectType implements Object interface
func (o *EndpointsIPv4Object) ObjectType() uint8 { return ObjectTypeEndpointsIPv4 }

func (o *EndpointsIPv4Object) bodyWireLen() int { return 8 }

func (o *EndpointsIPv4Object) marshalBodyTo(b []byte) (int, error) {
	if err := putIPv4(b, o.Src); err != nil {
		return 0, err
	}
	if err := putIPv4(b[4:], o.Dst); err != nil {
		return 0, err
	}
	return 8, nil
}

func (o *EndpointsIPv4Object) unmarshalBody(b []byte) error {
	if len(b) < 8 {
		return errTruncated("END-POINTS body", 8, len(b))
	}
	o.Src = getIPv4(b)
	o.Dst = getIPv4(b[4:])
	return nil
}

// EndpointsIPv6Object is the END-POINTS object for IPv6, sec 7.6
type EndpointsIPv6Object struct {
	ObjectHeader
	Src net.IP
	Dst net.IP
}

// NewEndpointsIPv6 creates an IPv6 END-POINTS object
func NewEndpointsIPv6(src, dst net.IP) *EndpointsIPv6Object {
	return &EndpointsIPv6Object{Src: src, Dst: dst}
}

// Class implements Object interface
func (o *EndpointsIPv6Object) Class() ObjectClass { return ObjectClassEndpoints }

// ObjectType implements Object interface
func (o *EndpointsIPv6Object) ObjectType() uint8 { return ObjectTypeEndpointsIPv6 }

func (o *EndpointsIPv6Object) bodyWireLen() int { return 32 }

func (o *EndpointsIPv6Object) marshalBodyTo(b []byte) (int, error) {
	if err := putIPv6(b, o.Src); err != nil {
		return 0, err
	}
	if err := putIPv6(b[16:], o.Dst); err != nil {
		return 0, err
	}
	return 32, nil
}

func (o *EndpointsIPv6Object) unmarshalBody(b []byte) error {
	if len(b) < 32 {
		return errTruncated("END-POINTS body", 32, len(b))
	}
	o.Src = getIPv6(b)
	o.Dst = getIPv6(b[16:])
	return nil
}

// BandwidthObject is the BANDWIDTH object, sec 7.7.
// The value travels as an IEEE 754 float in bytes per second.
type BandwidthObject struct {
	ObjectHeader
	// TELSP selects object type 2, bandwidth of an existing TE LSP
	TELSP     bool
	Bandwidth float32
}

// NewBandwidth creates a BANDWIDTH object
func NewBandwidth(bandwidth float32, telsp bool) *BandwidthObject {
	return &BandwidthObject{Bandwidth: bandwidth, TELSP: telsp}
}

// Class implements Object interface
func (o *BandwidthObject) Class() ObjectClass { return ObjectClassBandwidth }

// ObjectType implements Object interface
func (o *BandwidthObject) ObjectType() uint8 {
	if o.TELSP {
		return ObjectTypeBandwidthTELSP
	}
	return ObjectTypeBandwidthReq
}

func (o *BandwidthObject) bodyWireLen() int { return 4 }

func (o *BandwidthObject) marshalBodyTo(b []byte) (int, error) {
	binary.BigEndian.PutUint32(b, math.Float32bits(o.Bandwidth))
	return 4, nil
}

func (o *BandwidthObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("BANDWIDTH body", 4, len(b))
	}
	o.Bandwidth = math.Float32frombits(binary.BigEndian.Uint32(b))
	return nil
}

// METRIC object flag bits, sec 7.8
const (
	metricFlagB = 0x01
	metricFlagC = 0x02
)

// MetricObject is the METRIC object, sec 7.8
type MetricObject struct {
	ObjectHeader
	// FlagB marks the value as a bound
	FlagB bool
	// FlagC requests the computed metric be returned
	FlagC      bool
	MetricType MetricType
	Value      float32
}

// NewMetric creates a METRIC object
func NewMetric(t MetricType, flagB, flagC bool, value float32) *MetricObject {
	return &MetricObject{MetricType: t, FlagB: flagB, FlagC: flagC, Value: value}
}

// Class implements Object interface
func (o *MetricObject) Class() ObjectClass { return ObjectClassMetric }

// ObjectType implements Object interface
func (o *MetricObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *MetricObject) bodyWireLen() int { return 8 }

func (o *MetricObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = 0
	b[1] = 0
	var flags uint8
	if o.FlagB {
		flags |= metricFlagB
	}
	if o.FlagC {
		flags |= metricFlagC
	}
	b[2] = flags
	b[3] = uint8(o.MetricType)
	binary.BigEndian.PutUint32(b[4:], math.Float32bits(o.Value))
	return 8, nil
}

func (o *MetricObject) unmarshalBody(b []byte) error {
	if len(b) < 8 {
		return errTruncated("METRIC body", 8, len(b))
	}
	o.FlagB = b[2]&metricFlagB != 0
	o.FlagC = b[2]&metricFlagC != 0
	o.MetricType = MetricType(b[3])
	o.Value = math.Float32frombits(binary.BigEndian.Uint32(b[4:]))
	return nil
}

// EROObject is the Explicit Route Object, sec 7.9
type EROObject struct {
	ObjectHeader
	Subobjects []ROSubobject
}

// NewERO creates an ERO from sub-objects
func NewERO(subs ...ROSubobject) *EROObject {
	return &EROObject{Subobjects: subs}
}

// Class implements Object interface
func (o *EROObject) Class() ObjectClass { return ObjectClassERO }

// ObjectType implements Object interface
func (o *EROObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *EROObject) bodyWireLen() int { return subobjectsWireLen(o.Subobjects) }

func (o *EROObject) marshalBodyTo(b []byte) (int, error) {
	return writeSubobjects(o.Subobjects, b)
}

func (o *EROObject) unmarshalBody(b []byte) error {
	var err error
	o.Subobjects, err = readSubobjects(b, true)
	return err
}

// RROObject is the Reported Route Object, sec 7.10.
// Sub-objects must not carry the loose-hop bit.
type RROObject struct {
	ObjectHeader
	Subobjects []ROSubobject
}

// NewRRO creates an RRO from sub-objects
func NewRRO(subs ...ROSubobject) *RROObject {
	return &RROObject{Subobjects: subs}
}

// Class implements Object interface
func (o *RROObject) Class() ObjectClass { return ObjectClassRRO }

// ObjectType implements Object interface
func (o *RROObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *RROObject) bodyWireLen() int { return subobjectsWireLen(o.Subobjects) }

func (o *RROObject) marshalBodyTo(b []byte) (int, error) {
	return writeSubobjects(o.Subobjects, b)
}

func (o *RROObject) unmarshalBody(b []byte) error {
	var err error
	o.Subobjects, err = readSubobjects(b, false)
	return err
}

// IROObject is the Include Route Object, sec 7.12
type IROObject struct {
	ObjectHeader
	Subobjects []ROSubobject
}

// NewIRO creates an IRO from sub-objects
func NewIRO(subs ...ROSubobject) *IROObject {
	return &IROObject{Subobjects: subs}
}

// Class implements Object interface
func (o *IROObject) Class() ObjectClass { return ObjectClassIRO }

// ObjectType implements Object interface
func (o *IROObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *IROObject) bodyWireLen() int { return subobjectsWireLen(o.Subobjects) }

func (o *IROObject) marshalBodyTo(b []byte) (int, error) {
	return writeSubobjects(o.Subobjects, b)
}

func (o *IROObject) unmarshalBody(b []byte) error {
	var err error
	o.Subobjects, err = readSubobjects(b, true)
	return err
}

// LSPAObject is the LSP Attributes object, sec 7.11
type LSPAObject struct {
	ObjectHeader
	ExcludeAny          uint32
	IncludeAny          uint32
	IncludeAll          uint32
	SetupPriority       uint8
	HoldingPriority     uint8
	FlagLocalProtection bool
}

// NewLSPA creates an LSPA object
func NewLSPA(excludeAny, includeAny, includeAll uint32, setupPrio, holdingPrio uint8, localProtection bool) *LSPAObject {
	return &LSPAObject{
		ExcludeAny:          excludeAny,
		IncludeAny:          includeAny,
		IncludeAll:          includeAll,
		SetupPriority:       setupPrio,
		HoldingPriority:     holdingPrio,
		FlagLocalProtection: localProtection,
	}
}

// Class implements Object interface
func (o *LSPAObject) Class() ObjectClass { return ObjectClassLSPA }

// ObjectType implements Object interface
func (o *LSPAObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *LSPAObject) bodyWireLen() int { return 16 + tlvsWireLen(o.TLVs) }

func (o *LSPAObject) marshalBodyTo(b []byte) (int, error) {
	binary.BigEndian.PutUint32(b, o.ExcludeAny)
	binary.BigEndian.PutUint32(b[4:], o.IncludeAny)
	binary.BigEndian.PutUint32(b[8:], o.IncludeAll)
	b[12] = o.SetupPriority
	b[13] = o.HoldingPriority
	b[14] = 0
	if o.FlagLocalProtection {
		b[14] |= 0x01
	}
	b[15] = 0
	n, err := writeTLVs(o.TLVs, b[16:])
	return 16 + n, err
}

func (o *LSPAObject) unmarshalBody(b []byte) error {
	if len(b) < 16 {
		return errTruncated("LSPA body", 16, len(b))
	}
	o.ExcludeAny = binary.BigEndian.Uint32(b)
	o.IncludeAny = binary.BigEndian.Uint32(b[4:])
	o.IncludeAll = binary.BigEndian.Uint32(b[8:])
	o.SetupPriority = b[12]
	o.HoldingPriority = b[13]
	o.FlagLocalProtection = b[14]&0x01 != 0
	var err error
	o.TLVs, err = readTLVs(b[16:])
	return err
}

// SVEC object flag bits, sec 7.13.2
const (
	svecFlagLink = 0x01
	svecFlagNode = 0x02
	svecFlagSRLG = 0x04
)

// SVECObject is the Synchronization Vector object, sec 7.13
type SVECObject struct {
	ObjectHeader
	FlagLinkDiverse bool
	FlagNodeDiverse bool
	FlagSRLGDiverse bool
	RequestIDs      []uint32
}

// NewSVEC creates an SVEC object over the given request ids
func NewSVEC(link, node, srlg bool, requestIDs ...uint32) *SVECObject {
	return &SVECObject{FlagLinkDiverse: link, FlagNodeDiverse: node, FlagSRLGDiverse: srlg, RequestIDs: requestIDs}
}

// Class implements Object interface
func (o *SVECObject) Class() ObjectClass { return ObjectClassSVEC }

// ObjectType implements Object interface
func (o *SVECObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *SVECObject) bodyWireLen() int { return 4 + 4*len(o.RequestIDs) }

func (o *SVECObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = 0
	b[1] = 0
	b[2] = 0
	var flags uint8
	if o.FlagLinkDiverse {
		flags |= svecFlagLink
	}
	if o.FlagNodeDiverse {
		flags |= svecFlagNode
	}
	if o.FlagSRLGDiverse {
		flags |= svecFlagSRLG
	}
	b[3] = flags
	for i, id := range o.RequestIDs {
		binary.BigEndian.PutUint32(b[4+4*i:], id)
	}
	return o.bodyWireLen(), nil
}

func (o *SVECObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("SVEC body", 4, len(b))
	}
	o.FlagLinkDiverse = b[3]&svecFlagLink != 0
	o.FlagNodeDiverse = b[3]&svecFlagNode != 0
	o.FlagSRLGDiverse = b[3]&svecFlagSRLG != 0
	o.RequestIDs = nil
	for pos := 4; pos+4 <= len(b); pos += 4 {
		o.RequestIDs = append(o.RequestIDs, binary.BigEndian.Uint32(b[pos:]))
	}
	return nil
}

// NotifyObject is the NOTIFICATION object, sec 7.14
type NotifyObject struct {
	ObjectHeader
	NotificationType  NotificationType
	NotificationValue NotificationValue
}

// NewNotify creates a NOTIFICATION object
func NewNotify(nt NotificationType, nv NotificationValue) *NotifyObject {
	return &NotifyObject{NotificationType: nt, NotificationValue: nv}
}

// Class implements Object interface
func (o *NotifyObject) Class() ObjectClass { return ObjectClassNotify }

// ObjectType implements Object interface
func (o *NotifyObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *NotifyObject) bodyWireLen() int { return 4 + tlvsWireLen(o.TLVs) }

func (o *NotifyObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = 0
	b[1] = 0
	b[2] = uint8(o.NotificationType)
	b[3] = uint8(o.NotificationValue)
	n, err := writeTLVs(o.TLVs, b[4:])
	return 4 + n, err
}

func (o *NotifyObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("NOTIFICATION body", 4, len(b))
	}
	o.NotificationType = NotificationType(b[2])
	o.NotificationValue = NotificationValue(b[3])
	var err error
	o.TLVs, err = readTLVs(b[4:])
	return err
}

// ErrorObject is the PCEP-ERROR object, sec 7.15
type ErrorObject struct {
	ObjectHeader
	ErrorType  ErrorType
	ErrorValue ErrorValue
}

// NewError creates a PCEP-ERROR object
func NewError(t ErrorType, v ErrorValue) *ErrorObject {
	return &ErrorObject{ErrorType: t, ErrorValue: v}
}

// Class implements Object interface
func (o *ErrorObject) Class() ObjectClass { return ObjectClassError }

// ObjectType implements Object interface
func (o *ErrorObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *ErrorObject) bodyWireLen() int { return 4 + tlvsWireLen(o.TLVs) }

func (o *ErrorObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = 0
	b[1] = 0
	b[2] = uint8(o.ErrorType)
	b[3] = uint8(o.ErrorValue)
	n, err := writeTLVs(o.TLVs, b[4:])
	return 4 + n, err
}

func (o *ErrorObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("PCEP-ERROR body", 4, len(b))
	}
	o.ErrorType = ErrorType(b[2])
	o.ErrorValue = ErrorValue(b[3])
	var err error
	o.TLVs, err = readTLVs(b[4:])
	return err
}

// LoadBalancingObject is the LOAD-BALANCING object, sec 7.16
type LoadBalancingObject struct {
	ObjectHeader
	// MaxLSP is the maximum number of TE LSPs in the set
	MaxLSP uint8
	// MinBandwidth is the minimum bandwidth of each element
	MinBandwidth float32
}

// NewLoadBalancing creates a LOAD-BALANCING object
func NewLoadBalancing(maxLSP uint8, minBandwidth float32) *LoadBalancingObject {
	return &LoadBalancingObject{MaxLSP: maxLSP, MinBandwidth: minBandwidth}
}

// Class implements Object interface
func (o *LoadBalancingObject) Class() ObjectClass { return ObjectClassLoadBalancing }

// ObjectType implements Object interface
func (o *LoadBalancingObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *LoadBalancingObject) bodyWireLen() int { return 8 }

func (o *LoadBalancingObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = 0
	b[1] = 0
	b[2] = 0
	b[3] = o.MaxLSP
	binary.BigEndian.PutUint32(b[4:], math.Float32bits(o.MinBandwidth))
	return 8, nil
}

func (o *LoadBalancingObject) unmarshalBody(b []byte) error {
	if len(b) < 8 {
		return errTruncated("LOAD-BALANCING body", 8, len(b))
	}
	o.MaxLSP = b[3]
	o.MinBandwidth = math.Float32frombits(binary.BigEndian.Uint32(b[4:]))
	return nil
}

// CloseObject is the CLOSE object, sec 7.17
type CloseObject struct {
	ObjectHeader
	Reason CloseReason
}

// NewClose creates a CLOSE object
func NewClose(reason CloseReason) *CloseObject {
	return &CloseObject{Reason: reason}
}

// Class implements Object interface
func (o *CloseObject) Class() ObjectClass { return ObjectClassClose }

// ObjectType implements Object interface
func (o *CloseObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *CloseObject) bodyWireLen() int { return 4 + tlvsWireLen(o.TLVs) }

func (o *CloseObject) marshalBodyTo(b []byte) (int, error) {
	b[0] = 0
	b[1] = 0
	b[2] = 0
	b[3] = uint8(o.Reason)
	n, err := writeTLVs(o.TLVs, b[4:])
	return 4 + n, err
}

func (o *CloseObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("CLOSE body", 4, len(b))
	}
	o.Reason = CloseReason(b[3])
	var err error
	o.TLVs, err = readTLVs(b[4:])
	return err
}

// LSP object flag bits within the low 12 bits of the first word, RFC 8231 sec 7.3
const (
	lspFlagD      = 0x001
	lspFlagS      = 0x002
	lspFlagR      = 0x004
	lspFlagA      = 0x008
	lspFlagC      = 0x080
	lspStatusShift = 4
	lspStatusMask  = 0x7
)

// LSPObject is the LSP object, RFC 8231 sec 7.3
type LSPObject struct {
	ObjectHeader
	// PLSPID is a 20-bit LSP identifier
	PLSPID            uint32
	OperationalStatus LSPOperationalStatus
	// FlagD is the delegate bit
	FlagD bool
	// FlagS is the sync bit
	FlagS bool
	// FlagR is the remove bit
	FlagR bool
	// FlagA is the administrative bit
	FlagA bool
	// FlagC is the create bit, RFC 8281
	FlagC bool
}

// NewLSP creates an LSP object
func NewLSP(plspID uint32, status LSPOperationalStatus, d, s, r, a, c bool, tlvs ...TLV) *LSPObject {
	return &LSPObject{
		ObjectHeader:      ObjectHeader{TLVs: tlvs},
		PLSPID:            plspID & MaxPLSPID,
		OperationalStatus: status,
		FlagD:             d,
		FlagS:             s,
		FlagR:             r,
		FlagA:             a,
		FlagC:             c,
	}
}

// Class implements Object interface
func (o *LSPObject) Class() ObjectClass { return ObjectClassLSP }

// ObjectType implements Object interface
func (o *LSPObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *LSPObject) bodyWireLen() int { return 4 + tlvsWireLen(o.TLVs) }

func (o *LSPObject) marshalBodyTo(b []byte) (int, error) {
	var flags uint32
	if o.FlagD {
		flags |= lspFlagD
	}
	if o.FlagS {
		flags |= lspFlagS
	}
	if o.FlagR {
		flags |= lspFlagR
	}
	if o.FlagA {
		flags |= lspFlagA
	}
	if o.FlagC {
		flags |= lspFlagC
	}
	flags |= uint32(o.OperationalStatus&lspStatusMask) << lspStatusShift
	binary.BigEndian.PutUint32(b, (o.PLSPID&MaxPLSPID)<<12|flags)
	n, err := writeTLVs(o.TLVs, b[4:])
	return 4 + n, err
}

func (o *LSPObject) unmarshalBody(b []byte) error {
	if len(b) < 4 {
		return errTruncated("LSP body", 4, len(b))
	}
	v := binary.BigEndian.Uint32(b)
	o.PLSPID = v >> 12
	o.FlagD = v&lspFlagD != 0
	o.FlagS = v&lspFlagS != 0
	o.FlagR = v&lspFlagR != 0
	o.FlagA = v&lspFlagA != 0
	o.FlagC = v&lspFlagC != 0
	o.OperationalStatus = LSPOperationalStatus(v >> lspStatusShift & lspStatusMask)
	var err error
	o.TLVs, err = readTLVs(b[4:])
	return err
}

// SRPObject is the Stateful PCE Request Parameters object, RFC 8231 sec 7.2
type SRPObject struct {
	ObjectHeader
	// FlagRemove is the R bit, RFC 8281
	FlagRemove bool
	SRPID      uint32
}

// NewSRP creates an SRP object
func NewSRP(srpID uint32, remove bool, tlvs ...TLV) *SRPObject {
	return &SRPObject{ObjectHeader: ObjectHeader{TLVs: tlvs}, SRPID: srpID, FlagRemove: remove}
}

// Class implements Object interface
func (o *SRPObject) Class() ObjectClass { return ObjectClassSRP }

// ObjectType implements Object interface
func (o *SRPObject) ObjectType() uint8 { return ObjectTypeDefault }

func (o *SRPObject) bodyWireLen() int { return 8 + tlvsWireLen(o.TLVs) }

func (o *SRPObject) marshalBodyTo(b []byte) (int, error) {
	var flags uint32
	if o.FlagRemove {
		flags |= 0x00000001
	}
	binary.BigEndian.PutUint32(b, flags)
	binary.BigEndian.PutUint32(b[4:], o.SRPID)
	n, err := writeTLVs(o.TLVs, b[8:])
	return 8 + n, err
}

func (o *SRPObject) unmarshalBody(b []byte) error {
	if len(b) < 8 {
		return errTruncated("SRP body", 8, len(b))
	}
	o.FlagRemove = binary.BigEndian.Uint32(b)&0x00000001 != 0
	o.SRPID = binary.BigEndian.Uint32(b[4:])
	var err error
	o.TLVs, err = readTLVs(b[8:])
	return err
}

// AssociationIPv4Object is the ASSOCIATION object with an IPv4 source,
// draft-ietf-pce-association-group
type AssociationIPv4Object struct {
	ObjectHeader
	// FlagR requests association removal
	FlagR           bool
	AssociationType AssociationType
	AssociationID   uint16
	Src             net.IP
}

// NewAssociationIPv4 creates an IPv4 ASSOCIATION object
func NewAssociationIPv4(flagR bool, t AssociationType, id uint16, src net.IP) *AssociationIPv4Object {
	return &AssociationIPv4Object{FlagR: flagR, AssociationType: t, AssociationID: id, Src: src}
}

// Class implements Object interface
func (o *AssociationIPv4Object) Class() ObjectClass { return ObjectClassAssociation }

// ObjectType implements Object interface
func (o *AssociationIPv4Object) ObjectType() uint8 { return ObjectTypeAssociationIPv4 }

func (o *AssociationIPv4Object) bodyWireLen() int { return 12 + tlvsWireLen(o.TLVs) }

func (o *AssociationIPv4Object) marshalBodyTo(b []byte) (int, error) {
	binary.BigEndian.PutUint16(b, 0)
	var flags uint16
	if o.FlagR {
		flags |= 0x0001
	}
	binary.BigEndian.PutUint16(b[2:], flags)
	binary.BigEndian.PutUint16(b[4:], uint16(o.AssociationType))
	binary.BigEndian.PutUint16(b[6:], o.AssociationID)
	if err := putIPv4(b[8:], o.Src); err != nil {
		return 0, err
	}
	n, err := writeTLVs(o.TLVs, b[12:])
	return 12 + n, err
}

func (o *AssociationIPv4Object) unmarshalBody(b []byte) error {
	if len(b) < 12 {
		return errTruncated("ASSOCIATION body", 12, len(b))
	}
	o.FlagR = binary.BigEndian.Uint16(b[2:])&0x0001 != 0
	o.AssociationType = AssociationType(binary.BigEndian.Uint16(b[4:]))
	o.AssociationID = binary.BigEndian.Uint16(b[6:])
	o.Src = getIPv4(b[8:])
	var err error
	o.TLVs, err = readTLVs(b[12:])
	return err
}

// AssociationIPv6Object is the ASSOCIATION object with an IPv6 source,
// draft-ietf-pce-association-group
type AssociationIPv6Object struct {
	ObjectHeader
	FlagR           bool
	AssociationType AssociationType
	AssociationID   uint16
	Src             net.IP
}

// NewAssociationIPv6 creates an IPv6 ASSOCIATION object
func NewAssociationIPv6(flagR bool, t AssociationType, id uint16, src net.IP) *AssociationIPv6Object {
	return &AssociationIPv6Object{FlagR: flagR, AssociationType: t, AssociationID: id, Src: src}
}

// Class implements Object interface
func (o *AssociationIPv6Object) Class() ObjectClass { return ObjectClassAssociation }

// ObjectType implements Object interface
func (o *AssociationIPv6Object) ObjectType() uint8 { return ObjectTypeAssociationIPv6 }

func (o *AssociationIPv6Object) bodyWireLen() int { return 24 + tlvsWireLen(o.TLVs) }

func (o *AssociationIPv6Object) marshalBodyTo(b []byte) (int, error) {
	binary.BigEndian.PutUint16(b, 0)
	var flags uint16
	if o.FlagR {
		flags |= 0x0001
	}
	binary.BigEndian.PutUint16(b[2:], flags)
	binary.BigEndian.PutUint16(b[4:], uint16(o.AssociationType))
	binary.BigEndian.PutUint16(b[6:], o.AssociationID)
	if err := putIPv6(b[8:], o.Src); err != nil {
		return 0, err
	}
	n, err := writeTLVs(o.TLVs, b[24:])
	return 24 + n, err
}

func (o *AssociationIPv6Object) unmarshalBody(b []byte) error {
	if len(b) < 24 {
		return errTruncated("ASSOCIATION body", 24, len(b))
	}
	o.FlagR = binary.BigEndian.Uint16(b[2:])&0x0001 != 0
	o.AssociationType = AssociationType(binary.BigEndian.Uint16(b[4:]))
	o.AssociationID = binary.BigEndian.Uint16(b[6:])
	o.Src = getIPv6(b[8:])
	var err error
	o.TLVs, err = readTLVs(b[24:])
	return err
}
