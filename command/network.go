package command

import (
	"net/netip"
	"strings"

	"github.com/arloliu/go-spd3303x/scpi"
)

// ipv4 is the dotted-quad wire form of an IPv4 address.
type ipv4 netip.Addr

func (a ipv4) AppendSCPI(b []byte) []byte {
	return netip.Addr(a).AppendTo(b)
}

// DecodeSCPI parses the whitespace-trimmed remaining input as an IPv4 address, then consumes
// its four digit groups and three dots.
func (a *ipv4) DecodeSCPI(c *scpi.Cursor) error {
	text := strings.TrimSpace(c.Remaining())
	addr, err := netip.ParseAddr(text)
	if err != nil || !addr.Is4() {
		derr := scpi.NewDecodeError(c, "IPv4 address", "malformed IPv4 address")
		derr.Err = err

		return derr
	}

	err = c.Try(func() error {
		c.ReadWhile(scpi.IsBlank)
		for i := 0; i < 4; i++ {
			if i > 0 {
				if err := c.MatchLiteral("."); err != nil {
					return err
				}
			}
			if c.ReadWhile(scpi.IsDigit) == "" {
				return scpi.NewDecodeError(c, "decimal digits", "malformed IPv4 address")
			}
		}

		return nil
	})
	if err != nil {
		return err
	}
	*a = ipv4(addr)

	return nil
}

// SetIPAddressRequest assigns a static address: "IPaddr 10.11.13.214".
// The device ignores it while DHCP is on.
type SetIPAddressRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Addr netip.Addr
}

func (r SetIPAddressRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("IPaddr "), ipv4(r.Addr))
}

func (r *SetIPAddressRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("IPaddr "), (*ipv4)(&r.Addr))
}

// GetIPAddressRequest queries the current address: "IPaddr?".
type GetIPAddressRequest struct {
	scpi.Expects[GetIPAddressResponse]
}

func (GetIPAddressRequest) AppendSCPI(b []byte) []byte { return append(b, "IPaddr?"...) }

func (*GetIPAddressRequest) DecodeSCPI(c *scpi.Cursor) error { return c.MatchLiteral("IPaddr?") }

// GetIPAddressResponse is the reply to GetIPAddressRequest, e.g. "10.11.13.214".
type GetIPAddressResponse struct {
	Addr netip.Addr
}

func (r GetIPAddressResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, ipv4(r.Addr), scpi.Newline)
}

func (r *GetIPAddressResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll((*ipv4)(&r.Addr), scpi.Newline)
}

// SetSubnetMaskRequest assigns the subnet mask: "MASKaddr 255.255.255.0".
type SetSubnetMaskRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Mask netip.Addr
}

func (r SetSubnetMaskRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("MASKaddr "), ipv4(r.Mask))
}

func (r *SetSubnetMaskRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("MASKaddr "), (*ipv4)(&r.Mask))
}

// GetSubnetMaskRequest queries the subnet mask: "MASKaddr?".
type GetSubnetMaskRequest struct {
	scpi.Expects[GetSubnetMaskResponse]
}

func (GetSubnetMaskRequest) AppendSCPI(b []byte) []byte { return append(b, "MASKaddr?"...) }

func (*GetSubnetMaskRequest) DecodeSCPI(c *scpi.Cursor) error { return c.MatchLiteral("MASKaddr?") }

// GetSubnetMaskResponse is the reply to GetSubnetMaskRequest.
type GetSubnetMaskResponse struct {
	Mask netip.Addr
}

func (r GetSubnetMaskResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, ipv4(r.Mask), scpi.Newline)
}

func (r *GetSubnetMaskResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll((*ipv4)(&r.Mask), scpi.Newline)
}

// SetGatewayRequest assigns the default gateway: "GATEaddr 10.11.13.1".
type SetGatewayRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Gateway netip.Addr
}

func (r SetGatewayRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("GATEaddr "), ipv4(r.Gateway))
}

func (r *SetGatewayRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("GATEaddr "), (*ipv4)(&r.Gateway))
}

// GetGatewayRequest queries the default gateway: "GATEaddr?".
type GetGatewayRequest struct {
	scpi.Expects[GetGatewayResponse]
}

func (GetGatewayRequest) AppendSCPI(b []byte) []byte { return append(b, "GATEaddr?"...) }

func (*GetGatewayRequest) DecodeSCPI(c *scpi.Cursor) error { return c.MatchLiteral("GATEaddr?") }

// GetGatewayResponse is the reply to GetGatewayRequest.
type GetGatewayResponse struct {
	Gateway netip.Addr
}

func (r GetGatewayResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, ipv4(r.Gateway), scpi.Newline)
}

func (r *GetGatewayResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll((*ipv4)(&r.Gateway), scpi.Newline)
}

// SetDHCPRequest switches DHCP on or off: "DHCP ON".
type SetDHCPRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	State State
}

func (r SetDHCPRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("DHCP "), r.State)
}

func (r *SetDHCPRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("DHCP "), &r.State)
}

// GetDHCPRequest queries the DHCP state: "DHCP?".
type GetDHCPRequest struct {
	scpi.Expects[GetDHCPResponse]
}

func (GetDHCPRequest) AppendSCPI(b []byte) []byte { return append(b, "DHCP?"...) }

func (*GetDHCPRequest) DecodeSCPI(c *scpi.Cursor) error { return c.MatchLiteral("DHCP?") }

// GetDHCPResponse is the reply to GetDHCPRequest, e.g. "DHCP:ON".
type GetDHCPResponse struct {
	State State
}

func (r GetDHCPResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("DHCP:"), r.State, scpi.Newline)
}

func (r *GetDHCPResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("DHCP:"), &r.State, scpi.Newline)
}
