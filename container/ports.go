package container

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"
)

// portSpecHint is appended to every port parse error.
const portSpecHint = `expected a mapping such as {"80/tcp": 8080}`

// ParsePorts parses a port mapping of the form
//
//	{"80/tcp": 8080, '443': "127.0.0.1:8443", "53/udp": null}
//
// Keys are "<port>[/<tcp|udp|sctp>]" in single or double quotes. Values are a
// host port (integer or quoted), a quoted "host-ip:port", or null/None for a
// daemon-assigned port. An empty or blank spec yields an empty map. Nothing
// outside this grammar is accepted.
func ParsePorts(spec string) (nat.PortMap, error) {
	ports := nat.PortMap{}
	if strings.TrimSpace(spec) == "" {
		return ports, nil
	}

	p := &portParser{src: spec}
	if err := p.parse(ports); err != nil {
		return nil, fmt.Errorf("%w: ports: %v; %s", ErrInvalidArgument, err, portSpecHint)
	}
	return ports, nil
}

// FormatPorts renders a port map as "80/tcp->8080" pairs in port order.
func FormatPorts(ports nat.PortMap) []string {
	keys := make([]string, 0, len(ports))
	for port := range ports {
		keys = append(keys, string(port))
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, b := range ports[nat.Port(k)] {
			out = append(out, PortBinding{ContainerPort: nat.Port(k), HostIP: b.HostIP, HostPort: b.HostPort}.String())
		}
	}
	return out
}

type portParser struct {
	src string
	pos int
}

func (p *portParser) parse(ports nat.PortMap) error {
	p.skipSpace()
	if !p.consume('{') {
		return p.errorf("expected '{'")
	}
	p.skipSpace()
	if p.consume('}') {
		return p.end()
	}

	for {
		port, err := p.key()
		if err != nil {
			return err
		}
		if _, dup := ports[port]; dup {
			return fmt.Errorf("duplicate container port %s", port)
		}

		p.skipSpace()
		if !p.consume(':') {
			return p.errorf("expected ':' after %q", port)
		}
		p.skipSpace()

		binding, err := p.value()
		if err != nil {
			return err
		}
		ports[port] = []nat.PortBinding{binding}

		p.skipSpace()
		if p.consume('}') {
			return p.end()
		}
		if !p.consume(',') {
			return p.errorf("expected ',' or '}'")
		}
		p.skipSpace()
		// Trailing comma.
		if p.consume('}') {
			return p.end()
		}
	}
}

func (p *portParser) key() (nat.Port, error) {
	raw, err := p.quoted()
	if err != nil {
		return "", err
	}

	port, proto, found := strings.Cut(raw, "/")
	if !found {
		proto = "tcp"
	}
	switch proto {
	case "tcp", "udp", "sctp":
	default:
		return "", fmt.Errorf("unsupported protocol %q", proto)
	}
	if _, err := portNumber(port); err != nil {
		return "", err
	}
	return nat.NewPort(proto, port)
}

func (p *portParser) value() (nat.PortBinding, error) {
	if p.pos < len(p.src) && (p.src[p.pos] == '"' || p.src[p.pos] == '\'') {
		raw, err := p.quoted()
		if err != nil {
			return nat.PortBinding{}, err
		}
		return hostBinding(raw)
	}

	start := p.pos
	for p.pos < len(p.src) && isWordByte(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	switch word {
	case "":
		return nat.PortBinding{}, p.errorf("expected host port")
	case "null", "None":
		return nat.PortBinding{}, nil
	}
	n, err := portNumber(word)
	if err != nil {
		return nat.PortBinding{}, err
	}
	return nat.PortBinding{HostPort: strconv.Itoa(n)}, nil
}

// hostBinding parses "8080" or "127.0.0.1:8080".
func hostBinding(raw string) (nat.PortBinding, error) {
	if !strings.Contains(raw, ":") {
		n, err := portNumber(raw)
		if err != nil {
			return nat.PortBinding{}, err
		}
		return nat.PortBinding{HostPort: strconv.Itoa(n)}, nil
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return nat.PortBinding{}, fmt.Errorf("invalid host binding %q", raw)
	}
	if net.ParseIP(host) == nil {
		return nat.PortBinding{}, fmt.Errorf("invalid host ip %q", host)
	}
	n, err := portNumber(port)
	if err != nil {
		return nat.PortBinding{}, err
	}
	return nat.PortBinding{HostIP: host, HostPort: strconv.Itoa(n)}, nil
}

func (p *portParser) quoted() (string, error) {
	if p.pos >= len(p.src) {
		return "", p.errorf("expected quoted string")
	}
	q := p.src[p.pos]
	if q != '"' && q != '\'' {
		return "", p.errorf("expected quoted string")
	}
	end := strings.IndexByte(p.src[p.pos+1:], q)
	if end < 0 {
		return "", p.errorf("unterminated string")
	}
	s := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return strings.TrimSpace(s), nil
}

func (p *portParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return p.errorf("unexpected trailing input")
	}
	return nil
}

func (p *portParser) consume(b byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *portParser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *portParser) errorf(format string, args ...any) error {
	return fmt.Errorf("at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func portNumber(s string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("port %q out of range", s)
	}
	return n, nil
}

func isWordByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
