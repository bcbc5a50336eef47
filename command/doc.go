// Package command defines the request and response messages understood by the
// SPD3303X power supply and their exact wire syntax.
//
// Each request type embeds scpi.Expects with its reply type, so a request can only be
// executed for the response it produces:
//
//	resp, err := spd3303x.Execute[command.MeasureResponse](ctx, session, command.MeasureRequest{
//		Quantity: command.Voltage,
//		Channel:  scpi.Some(command.Channel1),
//	})
//
// Every message encodes and decodes symmetrically. Responses include their line terminator.
package command
