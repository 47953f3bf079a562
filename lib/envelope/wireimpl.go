package envelope

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// NewWireCodec creates the codec used on the boundary. The envelope is
// encoded like a protobuf message whose fields form a single oneof: the
// active case is the only field present, keyed by its field number, and
// carries the payload as length delimited bytes.
func NewWireCodec() ICodec {
	return &wireCodecImpl{}
}

// wireCodecImpl implements ICodec on top of protowire
type wireCodecImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see envelope.ICodec)
// --------------------------------------------------------------------------

func (w wireCodecImpl) EncodeRequest(req Request) ([]byte, error) {
	return encodeOneof(req.Kind, req.Case, req.Payload)
}

func (w wireCodecImpl) DecodeRequest(kind Kind, b []byte) (Request, error) {
	c, payload, err := decodeOneof(kind, b)
	if err != nil {
		return Request{}, err
	}
	return Request{Kind: kind, Case: c, Payload: payload}, nil
}

func (w wireCodecImpl) EncodeResponse(resp Response) ([]byte, error) {
	return encodeOneof(resp.Kind, resp.Case, resp.Payload)
}

func (w wireCodecImpl) DecodeResponse(kind Kind, b []byte) (Response, error) {
	c, payload, err := decodeOneof(kind, b)
	if err != nil {
		return Response{}, err
	}
	return Response{Kind: kind, Case: c, Payload: payload}, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// encodeOneof writes the tag of the active case followed by the payload
func encodeOneof(kind Kind, c Case, payload []byte) ([]byte, error) {
	num, ok := kind.fieldNumber(c)
	if !ok {
		return nil, fmt.Errorf("envelope: %s is not a %s case", c, kind)
	}

	b := make([]byte, 0, protowire.SizeTag(num)+protowire.SizeBytes(len(payload)))
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendBytes(b, payload)
	return b, nil
}

// decodeOneof reads all fields and returns the last known case (protobuf
// oneof semantics). Unknown field numbers are skipped so that hosts built
// against a newer schema stay compatible. The returned payload aliases b.
func decodeOneof(kind Kind, b []byte) (Case, []byte, error) {
	active := CaseNone
	var payload []byte

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return CaseNone, nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		c, known := kind.caseOf(num)
		if !known {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return CaseNone, nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		if typ != protowire.BytesType {
			return CaseNone, nil, fmt.Errorf("%w: case %s has wire type %d", ErrMalformed, c, typ)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return CaseNone, nil, fmt.Errorf("%w: case %s: %v", ErrMalformed, c, protowire.ParseError(n))
		}
		b = b[n:]
		active, payload = c, v
	}

	if active == CaseNone {
		return CaseNone, nil, fmt.Errorf("%w: no %s case selected", ErrMalformed, kind)
	}
	return active, payload, nil
}
