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

// all references are given for RFC 5440 unless stated otherwise

import "fmt"

// Version is the PCEP protocol version we implement
const Version uint8 = 1

// PortPCEP is the IANA-assigned TCP port for PCEP
const PortPCEP = 4189

// MessageType is the Message-Type field of the common header
type MessageType uint8

// message types, Table in sec 6.1, plus RFC 8231/8281 stateful extensions
const (
	MessageOpen      MessageType = 1
	MessageKeepAlive MessageType = 2
	MessagePCReq     MessageType = 3
	MessagePCRep     MessageType = 4
	MessagePCNtf     MessageType = 5
	MessageError     MessageType = 6
	MessageClose     MessageType = 7
	MessageReport    MessageType = 10
	MessageUpdate    MessageType = 11
	MessageInitiate  MessageType = 12
)

var messageTypeToString = map[MessageType]string{
	MessageOpen:      "OPEN",
	MessageKeepAlive: "KEEPALIVE",
	MessagePCReq:     "PCREQ",
	MessagePCRep:     "PCREP",
	MessagePCNtf:     "PCNTF",
	MessageError:     "PCERR",
	MessageClose:     "CLOSE",
	MessageReport:    "REPORT",
	MessageUpdate:    "UPDATE",
	MessageInitiate:  "INITIATE",
}

func (t MessageType) String() string {
	if s, ok := messageTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_MESSAGE_TYPE(%d)", uint8(t))
}

// ObjectClass is the Object-Class field of the common object header
type ObjectClass uint8

// object classes, sec 7 and RFC 8231/8281, association from draft-ietf-pce-association-group
const (
	ObjectClassOpen          ObjectClass = 1
	ObjectClassRP            ObjectClass = 2
	ObjectClassNoPath        ObjectClass = 3
	ObjectClassEndpoints     ObjectClass = 4
	ObjectClassBandwidth     ObjectClass = 5
	ObjectClassMetric        ObjectClass = 6
	ObjectClassERO           ObjectClass = 7
	ObjectClassRRO           ObjectClass = 8
	ObjectClassLSPA          ObjectClass = 9
	ObjectClassIRO           ObjectClass = 10
	ObjectClassSVEC          ObjectClass = 11
	ObjectClassNotify        ObjectClass = 12
	ObjectClassError         ObjectClass = 13
	ObjectClassLoadBalancing ObjectClass = 14
	ObjectClassClose         ObjectClass = 15
	ObjectClassLSP           ObjectClass = 32
	ObjectClassSRP           ObjectClass = 33
	ObjectClassAssociation   ObjectClass = 40
)

var objectClassToString = map[ObjectClass]string{
	ObjectClassOpen:          "OPEN",
	ObjectClassRP:            "RP",
	ObjectClassNoPath:        "NOPATH",
	ObjectClassEndpoints:     "ENDPOINTS",
	ObjectClassBandwidth:     "BANDWIDTH",
	ObjectClassMetric:        "METRIC",
	ObjectClassERO:           "ERO",
	ObjectClassRRO:           "RRO",
	ObjectClassLSPA:          "LSPA",
	ObjectClassIRO:           "IRO",
	ObjectClassSVEC:          "SVEC",
	ObjectClassNotify:        "NOTIFICATION",
	ObjectClassError:         "ERROR",
	ObjectClassLoadBalancing: "LOAD_BALANCING",
	ObjectClassClose:         "CLOSE",
	ObjectClassLSP:           "LSP",
	ObjectClassSRP:           "SRP",
	ObjectClassAssociation:   "ASSOCIATION",
}

func (c ObjectClass) String() string {
	if s, ok := objectClassToString[c]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_OBJECT_CLASS(%d)", uint8(c))
}

// object types within a class
const (
	ObjectTypeDefault         uint8 = 1
	ObjectTypeEndpointsIPv4   uint8 = 1
	ObjectTypeEndpointsIPv6   uint8 = 2
	ObjectTypeBandwidthReq    uint8 = 1
	ObjectTypeBandwidthTELSP  uint8 = 2
	ObjectTypeAssociationIPv4 uint8 = 1
	ObjectTypeAssociationIPv6 uint8 = 2
)

// ErrorType is the Error-Type field of the PCEP-ERROR object
type ErrorType uint8

// error types, sec 7.15 plus RFC 8231/8281
const (
	ErrorTypeSessionFailure          ErrorType = 1
	ErrorTypeCapabilityNotSupported  ErrorType = 2
	ErrorTypeUnknownObject           ErrorType = 3
	ErrorTypeNotSupportedObject      ErrorType = 4
	ErrorTypePolicyViolation         ErrorType = 5
	ErrorTypeMandatoryObjectMissing  ErrorType = 6
	ErrorTypeSyncPCReqMissing        ErrorType = 7
	ErrorTypeUnknownReqRef           ErrorType = 8
	ErrorTypeSecondSessionAttempt    ErrorType = 9
	ErrorTypeInvalidObjectReception  ErrorType = 10
	ErrorTypeInvalidOperation        ErrorType = 19
	ErrorTypeLSPStateSyncError       ErrorType = 20
	ErrorTypeBadParameterValue       ErrorType = 23
	ErrorTypeLSPInstantiateError     ErrorType = 24
)

var errorTypeToString = map[ErrorType]string{
	ErrorTypeSessionFailure:         "SESSION_FAILURE",
	ErrorTypeCapabilityNotSupported: "CAPABILITY_NOT_SUPPORTED",
	ErrorTypeUnknownObject:          "UNKNOWN_OBJECT",
	ErrorTypeNotSupportedObject:     "NOT_SUPPORTED_OBJECT",
	ErrorTypePolicyViolation:        "POLICY_VIOLATION",
	ErrorTypeMandatoryObjectMissing: "MANDATORY_OBJECT_MISSING",
	ErrorTypeSyncPCReqMissing:       "SYNC_PCREQ_MISSING",
	ErrorTypeUnknownReqRef:          "UNKNOWN_REQUEST_REF",
	ErrorTypeSecondSessionAttempt:   "SECOND_SESSION_ATTEMPT",
	ErrorTypeInvalidObjectReception: "INVALID_OBJECT_RECEPTION",
	ErrorTypeInvalidOperation:       "INVALID_OPERATION",
	ErrorTypeLSPStateSyncError:      "LSP_STATE_SYNC_ERROR",
	ErrorTypeBadParameterValue:      "BAD_PARAMETER_VALUE",
	ErrorTypeLSPInstantiateError:    "LSP_INSTANTIATE_ERROR",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_ERROR_TYPE(%d)", uint8(t))
}

// ErrorValue is the Error-value field of the PCEP-ERROR object.
// Values are only meaningful relative to their ErrorType.
type ErrorValue uint8

// error values for ErrorTypeSessionFailure
const (
	ErrorValueUnassigned                 ErrorValue = 0
	ErrorValueInvalidOpenMessage         ErrorValue = 1
	ErrorValueOpenWaitTimedOut           ErrorValue = 2
	ErrorValueUnacceptableOpenNoNeg      ErrorValue = 3
	ErrorValueUnacceptableOpenNeg        ErrorValue = 4
	ErrorValueSecondOpenUnacceptable     ErrorValue = 5
	ErrorValueReceivedPCErr              ErrorValue = 6
	ErrorValueKeepAliveWaitTimedOut      ErrorValue = 7
)

// error values for ErrorTypeUnknownObject and ErrorTypeNotSupportedObject
const (
	ErrorValueObjectClass ErrorValue = 1
	ErrorValueObjectType  ErrorValue = 2
)

// error values for ErrorTypePolicyViolation
const (
	ErrorValueCBitSetInMetric    ErrorValue = 1
	ErrorValueOBitClearedInRP    ErrorValue = 2
)

// error values for ErrorTypeMandatoryObjectMissing
const (
	ErrorValueRPMissing        ErrorValue = 1
	ErrorValueRROMissingReopt  ErrorValue = 2
	ErrorValueEndpointsMissing ErrorValue = 3
	ErrorValueLSPMissing       ErrorValue = 8
	ErrorValueEROMissing       ErrorValue = 9
	ErrorValueSRPMissing       ErrorValue = 10
	ErrorValueLSPIDTLVMissing  ErrorValue = 11
)

// error values for ErrorTypeInvalidObjectReception
const (
	ErrorValuePFlagNotCorrect          ErrorValue = 1
	ErrorValueSymbolicPathNameMissing  ErrorValue = 8
)

// CloseReason is the Reason field of the CLOSE object, sec 7.17
type CloseReason uint8

// close reasons
const (
	CloseReasonNo               CloseReason = 1
	CloseReasonDeadTimer        CloseReason = 2
	CloseReasonFormat           CloseReason = 3
	CloseReasonUnknownRequest   CloseReason = 4
	CloseReasonUnknownMessage   CloseReason = 5
)

var closeReasonToString = map[CloseReason]string{
	CloseReasonNo:             "NO_REASON",
	CloseReasonDeadTimer:      "DEAD_TIMER_EXPIRED",
	CloseReasonFormat:         "MALFORMED_MESSAGE",
	CloseReasonUnknownRequest: "TOO_MANY_UNKNOWN_REQUESTS",
	CloseReasonUnknownMessage: "TOO_MANY_UNKNOWN_MESSAGES",
}

func (r CloseReason) String() string {
	if s, ok := closeReasonToString[r]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_CLOSE_REASON(%d)", uint8(r))
}

// NotificationType is the NT field of the NOTIFICATION object, sec 7.14
type NotificationType uint8

// notification types
const (
	NotificationPendingRequestCancelled NotificationType = 1
	NotificationPCEOverloaded           NotificationType = 2
)

// NotificationValue qualifies a NotificationType
type NotificationValue uint8

// notification values
const (
	NotificationValuePCCCancelledRequest  NotificationValue = 1
	NotificationValuePCECancelledRequest  NotificationValue = 2
	NotificationValuePCECurrentlyOverloaded NotificationValue = 1
	NotificationValuePCENoLongerOverloaded  NotificationValue = 2
)

// MetricType is the T field of the METRIC object, sec 7.8
type MetricType uint8

// metric types
const (
	MetricIGP          MetricType = 1
	MetricTE           MetricType = 2
	MetricHopCount     MetricType = 3
	MetricDisjointness MetricType = 4
)

// NoPathNI is the Nature of Issue field of the NO-PATH object, sec 7.5
type NoPathNI uint8

// NO-PATH NI values
const (
	NoPathNINoPathFound    NoPathNI = 0
	NoPathNIPCEChainBroken NoPathNI = 1
)

// NoPathErrCode drives the NO-PATH-VECTOR TLV content
type NoPathErrCode uint8

// NO-PATH-VECTOR error codes
const (
	NoPathErrNoTLV          NoPathErrCode = 0
	NoPathErrPCEUnavailable NoPathErrCode = 1
	NoPathErrUnknownDst     NoPathErrCode = 2
	NoPathErrUnknownSrc     NoPathErrCode = 3
)

// LSPOperationalStatus is the O field of the LSP object, RFC 8231 sec 7.3
type LSPOperationalStatus uint8

// LSP operational statuses
const (
	LSPOperationalDown      LSPOperationalStatus = 0
	LSPOperationalUp        LSPOperationalStatus = 1
	LSPOperationalActive    LSPOperationalStatus = 2
	LSPOperationalGoingDown LSPOperationalStatus = 3
	LSPOperationalGoingUp   LSPOperationalStatus = 4
)

// MaxPLSPID is the largest value of the 20-bit PLSP-ID field
const MaxPLSPID = 0x000fffff

// AssociationType as in draft-ietf-pce-association-group
type AssociationType uint16

// association types
const (
	AssociationPathProtection AssociationType = 1
	AssociationSRPolicy       AssociationType = 65535
)

// ROSubobjectType tags a route-object sub-object.
// Used by ERO, IRO and RRO.
type ROSubobjectType uint8

// RO sub-object types, RFC 3209/3477 and draft-ietf-pce-segment-routing
const (
	ROSubobjectIPv4      ROSubobjectType = 1
	ROSubobjectIPv6      ROSubobjectType = 2
	ROSubobjectLabel     ROSubobjectType = 3
	ROSubobjectUnnum     ROSubobjectType = 4
	ROSubobjectSRDraft07 ROSubobjectType = 5
	ROSubobjectASN       ROSubobjectType = 32
	ROSubobjectSR        ROSubobjectType = 36
)

var roSubobjectTypeToString = map[ROSubobjectType]string{
	ROSubobjectIPv4:      "IPV4",
	ROSubobjectIPv6:      "IPV6",
	ROSubobjectLabel:     "LABEL",
	ROSubobjectUnnum:     "UNNUMBERED",
	ROSubobjectSRDraft07: "SR_DRAFT07",
	ROSubobjectASN:       "ASN",
	ROSubobjectSR:        "SR",
}

func (t ROSubobjectType) String() string {
	if s, ok := roSubobjectTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_RO_SUBOBJECT(%d)", uint8(t))
}

// NAIType is the NAI Type field of the SR sub-object
type NAIType uint8

// NAI types, draft-ietf-pce-segment-routing-16
const (
	NAIAbsent                  NAIType = 0
	NAIIPv4Node                NAIType = 1
	NAIIPv6Node                NAIType = 2
	NAIIPv4Adjacency           NAIType = 3
	NAIIPv6Adjacency           NAIType = 4
	NAIUnnumberedIPv4Adjacency NAIType = 5
	NAILinkLocalIPv6Adjacency  NAIType = 6
)

var naiTypeToString = map[NAIType]string{
	NAIAbsent:                  "ABSENT",
	NAIIPv4Node:                "IPV4_NODE",
	NAIIPv6Node:                "IPV6_NODE",
	NAIIPv4Adjacency:           "IPV4_ADJACENCY",
	NAIIPv6Adjacency:           "IPV6_ADJACENCY",
	NAIUnnumberedIPv4Adjacency: "UNNUMBERED_IPV4_ADJACENCY",
	NAILinkLocalIPv6Adjacency:  "LINK_LOCAL_IPV6_ADJACENCY",
}

func (t NAIType) String() string {
	if s, ok := naiTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_NAI_TYPE(%d)", uint8(t))
}

// TLVType is the Type field of a PCEP TLV
type TLVType uint16

// TLV types we decode into concrete structs. Everything else round-trips as UnknownTLV.
const (
	TLVNoPathVector           TLVType = 1
	TLVStatefulPCECapability  TLVType = 16
	TLVSymbolicPathName       TLVType = 17
	TLVIPv4LSPIdentifiers     TLVType = 18
	TLVLSPErrorCode           TLVType = 20
	TLVSRPCECapability        TLVType = 26
	TLVPathSetupType          TLVType = 28
)

var tlvTypeToString = map[TLVType]string{
	TLVNoPathVector:          "NO_PATH_VECTOR",
	TLVStatefulPCECapability: "STATEFUL_PCE_CAPABILITY",
	TLVSymbolicPathName:      "SYMBOLIC_PATH_NAME",
	TLVIPv4LSPIdentifiers:    "IPV4_LSP_IDENTIFIERS",
	TLVLSPErrorCode:          "LSP_ERROR_CODE",
	TLVSRPCECapability:       "SR_PCE_CAPABILITY",
	TLVPathSetupType:         "PATH_SETUP_TYPE",
}

func (t TLVType) String() string {
	if s, ok := tlvTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_TLV(%d)", uint16(t))
}
