package qr

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"

	"github.com/jackpal/gateway"
	"github.com/mdp/qrterminal/v3"
)

// Display prints the session url as a terminal qr code followed by the link
type Display struct {
	out    io.Writer
	logger *slog.Logger
	// lanIP resolves the address peers should use when bound to every interface
	lanIP func() (net.IP, error)
}

func NewDisplay(out io.Writer, logger *slog.Logger) port.Display {
	return &Display{out: out, logger: logger, lanIP: LANAddress}
}

// ShowURL renders rawURL, replacing a wildcard host with the LAN address
func (d *Display) ShowURL(rawURL string) {
	link := d.reachable(rawURL)

	qrterminal.GenerateWithConfig(link, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         d.out,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
	fmt.Fprintf(d.out, "\n%s\n\n", link)
}

func (d *Display) reachable(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() != domain.PublicAddress {
		return rawURL
	}
	ip, err := d.lanIP()
	if err != nil {
		d.logger.Debug("could not resolve LAN address, showing bind address", "error", err)
		return rawURL
	}
	u.Host = net.JoinHostPort(ip.String(), u.Port())
	return u.String()
}

// LANAddress returns the local address on the subnet of the default gateway
func LANAddress() (net.IP, error) {
	gw, err := gateway.DiscoverGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to discover gateway: %w", err)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if ok && ipNet.Contains(gw) {
				return ipNet.IP, nil
			}
		}
	}
	return nil, fmt.Errorf("no interface on the gateway %s subnet", gw)
}
