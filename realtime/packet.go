package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/jrsteele09/go-guard-companion/internal/errors"
)

// Engine.IO v4 packet types
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioNoop    = '6'
)

// Socket.IO v5 packet types, carried inside an Engine.IO message
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

type packetKind int

const (
	kindUnknown packetKind = iota
	kindOpen
	kindClose
	kindPing
	kindPong
	kindNoop
	kindConnect
	kindDisconnect
	kindEvent
	kindConnectError
)

type packet struct {
	kind  packetKind
	event string
	data  []byte // open/connect metadata, event payload or connect error body
}

// openInfo is the Engine.IO handshake sent by the server on a new transport
type openInfo struct {
	SID          string
	PingInterval time.Duration
	PingTimeout  time.Duration
}

func decodePacket(frame []byte) (packet, error) {
	if len(frame) == 0 {
		return packet{}, errors.Wrapf(errors.ErrInvalidRequest, "[decodePacket] empty frame")
	}
	switch frame[0] {
	case eioOpen:
		return packet{kind: kindOpen, data: frame[1:]}, nil
	case eioClose:
		return packet{kind: kindClose}, nil
	case eioPing:
		return packet{kind: kindPing}, nil
	case eioPong:
		return packet{kind: kindPong}, nil
	case eioNoop:
		return packet{kind: kindNoop}, nil
	case eioMessage:
		return decodeSocketPacket(frame[1:])
	}
	return packet{kind: kindUnknown}, nil
}

func decodeSocketPacket(body []byte) (packet, error) {
	if len(body) == 0 {
		return packet{}, errors.Wrapf(errors.ErrInvalidRequest, "[decodeSocketPacket] empty message")
	}
	kind := body[0]
	rest := skipNamespaceAndAckID(body[1:])
	switch kind {
	case sioConnect:
		return packet{kind: kindConnect, data: rest}, nil
	case sioDisconnect:
		return packet{kind: kindDisconnect}, nil
	case sioConnectError:
		return packet{kind: kindConnectError, data: rest}, nil
	case sioEvent:
		name, err := jsonparser.GetString(rest, "[0]")
		if err != nil {
			return packet{}, errors.Wrapf(errors.ErrInvalidRequest, "[decodeSocketPacket] event without name: %v", err)
		}
		payload, dataType, _, err := jsonparser.Get(rest, "[1]")
		if err != nil || dataType == jsonparser.NotExist {
			payload = nil
		} else if dataType == jsonparser.String {
			str, _ := jsonparser.ParseString(payload)
			payload, _ = json.Marshal(str)
		}
		return packet{kind: kindEvent, event: name, data: payload}, nil
	}
	return packet{kind: kindUnknown}, nil
}

// skipNamespaceAndAckID drops an optional "/nsp," prefix and ack id digits
func skipNamespaceAndAckID(b []byte) []byte {
	if len(b) > 0 && b[0] == '/' {
		i := 0
		for i < len(b) && b[i] != ',' {
			i++
		}
		if i < len(b) {
			i++
		}
		b = b[i:]
	}
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	return b[i:]
}

func parseOpen(data []byte) (openInfo, error) {
	sid, err := jsonparser.GetString(data, "sid")
	if err != nil {
		return openInfo{}, errors.Wrapf(errors.ErrHandshake, "[parseOpen] missing sid: %v", err)
	}
	info := openInfo{SID: sid, PingInterval: 25 * time.Second, PingTimeout: 20 * time.Second}
	if v, err := jsonparser.GetInt(data, "pingInterval"); err == nil && v > 0 {
		info.PingInterval = time.Duration(v) * time.Millisecond
	}
	if v, err := jsonparser.GetInt(data, "pingTimeout"); err == nil && v > 0 {
		info.PingTimeout = time.Duration(v) * time.Millisecond
	}
	return info, nil
}

func connectErrorMessage(data []byte) string {
	if msg, err := jsonparser.GetString(data, "message"); err == nil {
		return msg
	}
	return strings.TrimSpace(string(data))
}

func encodeConnect(auth map[string]string) []byte {
	frame := []byte{eioMessage, sioConnect}
	if len(auth) == 0 {
		return frame
	}
	body, _ := json.Marshal(auth)
	return append(frame, body...)
}

func encodeDisconnect() []byte {
	return []byte{eioMessage, sioDisconnect}
}

func encodePong() []byte {
	return []byte{eioPong}
}

// EncodeEvent builds a socket.io EVENT frame for the default namespace
func EncodeEvent(event string, payload any) ([]byte, error) {
	body, err := json.Marshal([]any{event, payload})
	if err != nil {
		return nil, errors.Wrapf(err, "[EncodeEvent] %s", event)
	}
	return append([]byte{eioMessage, sioEvent}, body...), nil
}
