package common

import "fmt"

// ProtocolErrType enumerates the ways a peer or the harness can break the wire
// protocol. Every one of them is fatal for the node.
type ProtocolErrType uint32

const (
	// MalformedMessage is a line that is not a valid JSON envelope.
	MalformedMessage ProtocolErrType = iota
	// UnknownType is a payload tag that the node's protocol does not define.
	UnknownType
	// MissingField is an envelope or payload without a required field.
	MissingField
	// UnexpectedMessage is a message arriving at a point where the runtime
	// cannot accept it, such as anything other than init as the first message.
	UnexpectedMessage
	// UnknownNode is a node id that is not part of the cluster.
	UnknownNode
	// MissingTopology is a topology that has no entry for this node.
	MissingTopology
)

// ProtocolErr ...
type ProtocolErr struct {
	dataType string
	errType  ProtocolErrType
	detail   string
}

// NewProtocolErr ...
func NewProtocolErr(dataType string, errType ProtocolErrType, detail string) ProtocolErr {
	return ProtocolErr{
		dataType: dataType,
		errType:  errType,
		detail:   detail,
	}
}

// Error ...
func (e ProtocolErr) Error() string {
	m := ""
	switch e.errType {
	case MalformedMessage:
		m = "Malformed Message"
	case UnknownType:
		m = "Unknown Type"
	case MissingField:
		m = "Missing Field"
	case UnexpectedMessage:
		m = "Unexpected Message"
	case UnknownNode:
		m = "Unknown Node"
	case MissingTopology:
		m = "Missing Topology"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.detail, m)
}

// IsProtocol checks that an error is of type ProtocolErr and that its code
// matches the provided ProtocolErr code. Wrapped errors are unwrapped.
func IsProtocol(err error, t ProtocolErrType) bool {
	for err != nil {
		if protocolErr, ok := err.(ProtocolErr); ok {
			return protocolErr.errType == t
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
