// Package envelope encodes and decodes the tagged union that wraps every
// request and response crossing the boundary.
//
// An envelope has exactly one active Case out of a fixed, versioned set.
// The synchronous and the asynchronous entry point each have their own set
// (Kind). The payload of the active case is opaque here: its schema belongs
// to the handler serving the case.
//
// Codecs:
//
//   - NewWireCodec: protobuf compatible oneof encoding (tag of the active
//     case, varint length, payload). This is the format of the boundary and
//     can be produced by any protobuf runtime on the host side.
//
//   - NewJSONCodec: human readable encoding for debugging and the CLI.
//
// Decoding never panics. Every failure wraps ErrMalformed, including the
// case where the bytes are well formed but select no known case.
//
// Thread Safety:
//
//	All codecs are stateless and safe for concurrent use.
package envelope
