// Package spd3303x implements a control session for the Siglent SPD3303X programmable DC power
// supply over its SCPI raw socket.
//
// A Session owns one TCP stream. Each request is written as a single line; requests that
// produce a reply then read exactly one line and decode it into the reply type bound to the
// request:
//
//	s, err := spd3303x.ConnectByName(ctx, "spd3303x.lab:5025")
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	if err := s.VerifyIdentity(ctx, "SPD3XIDX123456"); err != nil {
//		return err
//	}
//	v, err := s.Measure(ctx, command.Channel1, command.Voltage)
//
// A Session is not safe for concurrent use. IntoChannels hands the session to a Supply, which
// serializes complete request/reply exchanges and exposes per-channel views that can be
// shared between goroutines.
//
// The deadline of the context passed to a request bounds the whole exchange. Without a deadline
// a request waits for its reply indefinitely. A transport failure, including a missed deadline,
// closes the session; a reply that fails to decode does not.
package spd3303x
