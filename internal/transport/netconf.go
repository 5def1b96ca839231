// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/xmlquery"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/meshintel/netharvest/pkg/types"
)

// endOfMessage is the NETCONF 1.0 end-of-message delimiter.
const endOfMessage = "]]>]]>"

const helloMessage = `<?xml version="1.0" encoding="UTF-8"?>
<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <capabilities>
    <capability>urn:ietf:params:xml:ns:netconf:base:1.0</capability>
  </capabilities>
</hello>
` + endOfMessage

// NETCONFDialer opens NETCONF-over-SSH sessions.
type NETCONFDialer struct {
	// Timeout bounds the TCP/SSH dial and each RPC round trip.
	Timeout time.Duration
}

// Dial establishes an SSH connection, requests the netconf subsystem, and
// exchanges hello messages. Failures are reported as connect errors.
func (d *NETCONFDialer) Dial(ctx context.Context, ep Endpoint, creds Credentials) (Conn, error) {
	auth, err := authMethods(creds)
	if err != nil {
		return nil, types.WrapError(err, types.KindConnect)
	}

	cfg := &ssh.ClientConfig{
		User: creds.Username,
		Auth: auth,
		// Host key verification is the operator's concern, as with the
		// usual network-automation tooling this replaces.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.Timeout,
	}

	addr := net.JoinHostPort(ep.Host, fmt.Sprintf("%d", ep.Port))
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, types.WrapError(fmt.Errorf("connecting to %s@%s: %w", creds.Username, addr, err),
			types.KindConnect)
	}

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, types.WrapError(fmt.Errorf("opening SSH session to %s: %w", addr, err),
			types.KindConnect)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, types.WrapError(err, types.KindConnect)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, types.WrapError(err, types.KindConnect)
	}

	if err := sess.RequestSubsystem("netconf"); err != nil {
		sess.Close()
		client.Close()
		return nil, types.WrapError(fmt.Errorf("requesting netconf subsystem on %s: %w", addr, err),
			types.KindConnect)
	}

	c := &netconfConn{
		client:  client,
		sess:    sess,
		stdin:   stdin,
		stdout:  stdout,
		timeout: d.Timeout,
	}

	// Server hello first, then ours. The capability list is not
	// interesting here; only base 1.0 framing is used.
	if _, err := c.readMessage(ctx); err != nil {
		c.Close()
		return nil, types.WrapError(fmt.Errorf("reading hello from %s: %w", addr, err),
			types.KindConnect)
	}
	if _, err := io.WriteString(stdin, helloMessage); err != nil {
		c.Close()
		return nil, types.WrapError(fmt.Errorf("sending hello to %s: %w", addr, err),
			types.KindConnect)
	}

	return c, nil
}

// authMethods builds the SSH auth chain: password when given, otherwise
// the local ssh-agent (the usual setup when no password is configured).
func authMethods(creds Credentials) ([]ssh.AuthMethod, error) {
	if creds.Password != "" {
		return []ssh.AuthMethod{ssh.Password(creds.Password)}, nil
	}

	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("no password given and SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connecting to ssh-agent: %w", err)
	}
	return []ssh.AuthMethod{ssh.PublicKeysCallback(agent.NewClient(conn).Signers)}, nil
}

type netconfConn struct {
	client  *ssh.Client
	sess    *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	timeout time.Duration

	mu        sync.Mutex
	closed    bool
	messageID int
	buf       strings.Builder
}

// Execute sends one rpc request and returns the parsed rpc-reply tree.
func (c *netconfConn) Execute(ctx context.Context, rpc string) (*xmlquery.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, types.WrapError(fmt.Errorf("session already closed"), types.KindRequestFailed)
	}

	c.messageID++
	msg := BuildRPC(c.messageID, rpc)
	if _, err := io.WriteString(c.stdin, msg); err != nil {
		return nil, types.WrapError(fmt.Errorf("sending rpc: %w", err), types.KindRequestFailed)
	}

	raw, err := c.readMessage(ctx)
	if err != nil {
		return nil, types.WrapError(fmt.Errorf("reading rpc-reply: %w", err), types.KindRequestFailed)
	}

	reply, err := ParseReply(raw)
	if err != nil {
		return nil, types.WrapError(err, types.KindRequestFailed)
	}
	return reply, nil
}

// readMessage reads from the session until the end-of-message delimiter,
// honoring the context and the dialer timeout.
func (c *netconfConn) readMessage(ctx context.Context) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type readResult struct {
		msg string
		err error
	}
	ch := make(chan readResult, 1)
	go func() {
		buf := make([]byte, 4096)
		for {
			if msg, ok := cutMessage(&c.buf); ok {
				ch <- readResult{msg: msg}
				return
			}
			n, err := c.stdout.Read(buf)
			if n > 0 {
				c.buf.Write(buf[:n])
			}
			if err != nil {
				ch <- readResult{err: err}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.msg, r.err
	}
}

// cutMessage splits one complete message off the front of the buffer.
func cutMessage(buf *strings.Builder) (string, bool) {
	s := buf.String()
	idx := strings.Index(s, endOfMessage)
	if idx < 0 {
		return "", false
	}
	rest := s[idx+len(endOfMessage):]
	buf.Reset()
	buf.WriteString(rest)
	return s[:idx], true
}

// Close sends close-session best-effort and tears down the SSH connection.
// Safe to call more than once.
func (c *netconfConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	io.WriteString(c.stdin, BuildRPC(c.messageID+1, "close-session"))
	c.stdin.Close()
	c.sess.Close()
	c.client.Close()
	return nil
}

// BuildRPC frames one rpc message. A bare name becomes an empty element;
// a descriptor already containing markup is sent as-is inside the rpc
// envelope.
func BuildRPC(messageID int, rpc string) string {
	body := rpc
	if !strings.Contains(rpc, "<") {
		body = "<" + rpc + "/>"
	}
	return fmt.Sprintf(
		`<rpc message-id="%d" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">%s</rpc>%s`,
		messageID, body, endOfMessage)
}

// ParseReply parses a raw rpc-reply and surfaces any rpc-error it carries.
func ParseReply(raw string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing rpc-reply: %w", err)
	}

	if errNode := xmlquery.FindOne(doc, "//rpc-error"); errNode != nil {
		sev := ""
		if s := xmlquery.FindOne(errNode, "error-severity"); s != nil {
			sev = strings.TrimSpace(s.InnerText())
		}
		msg := "device reported rpc-error"
		if m := xmlquery.FindOne(errNode, "error-message"); m != nil {
			msg = strings.TrimSpace(m.InnerText())
		}
		if sev == "" || sev == "error" {
			return nil, fmt.Errorf("rpc-error from device: %s", msg)
		}
	}
	return doc, nil
}
