package command

import (
	"strings"

	"github.com/arloliu/go-spd3303x/scpi"
)

// IdentityRequest queries the manufacturer, model, serial number and versions: "*IDN?".
type IdentityRequest struct {
	scpi.Expects[IdentityResponse]
}

func (IdentityRequest) AppendSCPI(b []byte) []byte { return append(b, "*IDN?"...) }

func (*IdentityRequest) DecodeSCPI(c *scpi.Cursor) error { return c.MatchLiteral("*IDN?") }

// IdentityResponse is the reply to IdentityRequest, e.g.
// "Siglent Technologies, SPD3303X, SPD00001130025, 1.01.01.01.02,V3.0".
type IdentityResponse struct {
	Manufacturer    string
	Model           string
	Serial          string
	SoftwareVersion string
	HardwareVersion string
}

func (r IdentityResponse) AppendSCPI(b []byte) []byte {
	b = append(b, r.Manufacturer...)
	b = append(b, ", "...)
	b = append(b, r.Model...)
	b = append(b, ", "...)
	b = append(b, r.Serial...)
	b = append(b, ", "...)
	b = append(b, r.SoftwareVersion...)
	b = append(b, ',')
	b = append(b, r.HardwareVersion...)

	return append(b, '\n')
}

// DecodeSCPI reads five comma separated fields; surrounding whitespace is trimmed from each.
func (r *IdentityResponse) DecodeSCPI(c *scpi.Cursor) error {
	var fields [5]string
	err := c.Try(func() error {
		for i := range fields {
			delim := byte(',')
			if i == len(fields)-1 {
				delim = '\n'
			}
			s, err := c.ReadUntil(delim)
			if err != nil {
				return err
			}
			fields[i] = strings.TrimSpace(s)
		}

		return nil
	})
	if err != nil {
		return err
	}

	*r = IdentityResponse{
		Manufacturer:    fields[0],
		Model:           fields[1],
		Serial:          fields[2],
		SoftwareVersion: fields[3],
		HardwareVersion: fields[4],
	}

	return nil
}

// SaveRequest stores the current settings into a memory slot: "*SAV 1".
type SaveRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Slot MemorySlot
}

func (r SaveRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("*SAV "), r.Slot)
}

func (r *SaveRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("*SAV "), &r.Slot)
}

// RecallRequest restores the settings stored in a memory slot: "*RCL 1".
type RecallRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Slot MemorySlot
}

func (r RecallRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("*RCL "), r.Slot)
}

func (r *RecallRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("*RCL "), &r.Slot)
}

// SetInstrumentRequest selects the channel that unqualified commands operate on: "INSTrument CH1".
type SetInstrumentRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Channel Channel
}

func (r SetInstrumentRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("INSTrument "), r.Channel)
}

func (r *SetInstrumentRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("INSTrument "), &r.Channel)
}

// GetInstrumentRequest queries the selected channel: "INSTrument?".
type GetInstrumentRequest struct {
	scpi.Expects[GetInstrumentResponse]
}

func (GetInstrumentRequest) AppendSCPI(b []byte) []byte { return append(b, "INSTrument?"...) }

func (*GetInstrumentRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.MatchLiteral("INSTrument?")
}

// GetInstrumentResponse is the reply to GetInstrumentRequest, e.g. "CH1".
type GetInstrumentResponse struct {
	Channel Channel
}

func (r GetInstrumentResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, r.Channel, scpi.Newline)
}

func (r *GetInstrumentResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(&r.Channel, scpi.Newline)
}

// MeasureRequest reads back the actual output of a channel: "MEASure:VOLTage? CH1".
// Without a channel the selected channel is measured.
type MeasureRequest struct {
	scpi.Expects[MeasureResponse]
	Quantity Quantity
	Channel  scpi.Optional[Channel]
}

func (r MeasureRequest) AppendSCPI(b []byte) []byte {
	b = scpi.AppendAll(b, scpi.Lit("MEASure:"), r.Quantity, scpi.Lit("?"))
	return scpi.AppendOptional(b, r.Channel, " ", "")
}

func (r *MeasureRequest) DecodeSCPI(c *scpi.Cursor) error {
	mark := c.Mark()
	if err := c.DecodeAll(scpi.Lit("MEASure:"), &r.Quantity, scpi.Lit("?")); err != nil {
		return err
	}

	ch, err := scpi.DecodeOptional[Channel](c, " ", "")
	if err != nil {
		c.Rewind(mark)
		return err
	}
	r.Channel = ch

	return nil
}

// MeasureResponse is the reply to MeasureRequest, e.g. "30.000".
type MeasureResponse struct {
	Value Reading
}

func (r MeasureResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, r.Value, scpi.Newline)
}

func (r *MeasureResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(&r.Value, scpi.Newline)
}

// SetLimitRequest programs the voltage or current limit: "CH1:VOLTage 25.000".
// Without a channel the selected channel is programmed.
type SetLimitRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Quantity LimitQuantity
	Value    Reading
	Channel  scpi.Optional[Channel]
}

func (r SetLimitRequest) AppendSCPI(b []byte) []byte {
	b = scpi.AppendOptional(b, r.Channel, "", ":")
	return scpi.AppendAll(b, r.Quantity, scpi.Lit(" "), r.Value)
}

func (r *SetLimitRequest) DecodeSCPI(c *scpi.Cursor) error {
	mark := c.Mark()
	r.Channel, _ = scpi.DecodeOptional[Channel](c, "", ":")
	if err := c.DecodeAll(&r.Quantity, scpi.Lit(" "), &r.Value); err != nil {
		c.Rewind(mark)
		return err
	}

	return nil
}

// GetLimitRequest queries the programmed voltage or current limit: "CH1:VOLTage?".
type GetLimitRequest struct {
	scpi.Expects[GetLimitResponse]
	Quantity LimitQuantity
	Channel  scpi.Optional[Channel]
}

func (r GetLimitRequest) AppendSCPI(b []byte) []byte {
	b = scpi.AppendOptional(b, r.Channel, "", ":")
	return scpi.AppendAll(b, r.Quantity, scpi.Lit("?"))
}

func (r *GetLimitRequest) DecodeSCPI(c *scpi.Cursor) error {
	mark := c.Mark()
	r.Channel, _ = scpi.DecodeOptional[Channel](c, "", ":")
	if err := c.DecodeAll(&r.Quantity, scpi.Lit("?")); err != nil {
		c.Rewind(mark)
		return err
	}

	return nil
}

// GetLimitResponse is the reply to GetLimitRequest, e.g. "25.000".
type GetLimitResponse struct {
	Value Reading
}

func (r GetLimitResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, r.Value, scpi.Newline)
}

func (r *GetLimitResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(&r.Value, scpi.Newline)
}

// SetOutputStateRequest switches an output on or off: "OUTPut CH1,ON".
type SetOutputStateRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Output OutputChannel
	State  State
}

func (r SetOutputStateRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("OUTPut "), r.Output, scpi.Lit(","), r.State)
}

func (r *SetOutputStateRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("OUTPut "), &r.Output, scpi.Lit(","), &r.State)
}

// SetOperationModeRequest couples the two channels: "OUTPut:TRACK 0".
type SetOperationModeRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Mode OperationMode
}

func (r SetOperationModeRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("OUTPut:TRACK "), r.Mode)
}

func (r *SetOperationModeRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("OUTPut:TRACK "), &r.Mode)
}

// WaveformDisplayRequest switches the waveform display of a channel: "OUTPut:WAVE CH1,ON".
type WaveformDisplayRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Channel Channel
	State   State
}

func (r WaveformDisplayRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("OUTPut:WAVE "), r.Channel, scpi.Lit(","), r.State)
}

func (r *WaveformDisplayRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("OUTPut:WAVE "), &r.Channel, scpi.Lit(","), &r.State)
}
