// Package scpi provides the wire codec framework for SCPI-style, line-oriented instrument
// control protocols.
//
// A command is a typed value that renders itself as one ASCII line, and its reply is a typed
// value that parses itself, field by field, from the line the instrument sends back.
//
// # Codec Capabilities
//
//   - Encoder: AppendSCPI appends the wire form of a value to a byte slice. Encoding never fails.
//   - Decoder: DecodeSCPI consumes the wire form of a value from a Cursor. A failed decode
//     leaves the cursor where it was, so alternative parses can retry from the same position.
//
// # Request/Response Binding
//
// A request type declares its reply type by embedding Expects:
//
//	type MeasureRequest struct {
//	    scpi.Expects[MeasureResponse]
//	    Quantity Quantity
//	}
//
// Only types embedding Expects[R] satisfy Request[R], so a session function such as
//
//	func Execute[R any, PR interface{ *R; scpi.Decoder }](ctx context.Context, s *Session, req scpi.Request[R]) (R, error)
//
// can never be handed a request together with the wrong reply type.
//
// # Parsing Primitives
//
// Cursor is a forward-only view over the remaining input with MatchLiteral, ReadUntil,
// ReadWhile, ReadExact, ReadLine, ReadUint16, ReadHex16 and ExpectEnd. Command templates are
// expressed declaratively with Lit, AppendAll and Cursor.DecodeAll:
//
//	func (r SetOutputStateRequest) AppendSCPI(b []byte) []byte {
//	    return scpi.AppendAll(b, scpi.Lit("OUTPut "), r.Channel, scpi.Lit(","), r.State)
//	}
//
// Enumerated tokens are tables of {value, literal} pairs (Tokens), and optional fields are
// represented by Optional.
package scpi
