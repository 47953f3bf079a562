package envelope

import (
	"encoding/json"
	"fmt"
)

// NewJSONCodec creates a codec using json encoding. The payload is base64
// encoded. Useful for debugging and for the command line, not for the
// boundary itself.
func NewJSONCodec() ICodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the ICodec interface using json encoding
type jsonCodecImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see envelope.ICodec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) EncodeRequest(req Request) ([]byte, error) {
	if !req.Kind.Supports(req.Case) {
		return nil, fmt.Errorf("envelope: %s is not a %s case", req.Case, req.Kind)
	}
	return json.Marshal(req)
}

func (j jsonCodecImpl) DecodeRequest(kind Kind, b []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(b, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate(kind, req.Case); err != nil {
		return Request{}, err
	}
	req.Kind = kind
	return req, nil
}

func (j jsonCodecImpl) EncodeResponse(resp Response) ([]byte, error) {
	if !resp.Kind.Supports(resp.Case) {
		return nil, fmt.Errorf("envelope: %s is not a %s case", resp.Case, resp.Kind)
	}
	return json.Marshal(resp)
}

func (j jsonCodecImpl) DecodeResponse(kind Kind, b []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate(kind, resp.Case); err != nil {
		return Response{}, err
	}
	resp.Kind = kind
	return resp, nil
}

func validate(kind Kind, c Case) error {
	if c == CaseNone {
		return fmt.Errorf("%w: no %s case selected", ErrMalformed, kind)
	}
	if !kind.Supports(c) {
		return fmt.Errorf("%w: %s is not a %s case", ErrMalformed, c, kind)
	}
	return nil
}
