package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/ssh"
)

type fakeContext struct {
	context.Context
	mu     sync.Mutex
	values map[any]any
	user   string
	remote net.Addr
}

func newFakeContext(ctx context.Context, user string, remote net.Addr) *fakeContext {
	return &fakeContext{Context: ctx, values: map[any]any{}, user: user, remote: remote}
}

func (f *fakeContext) Lock()                         { f.mu.Lock() }
func (f *fakeContext) Unlock()                       { f.mu.Unlock() }
func (f *fakeContext) User() string                  { return f.user }
func (f *fakeContext) SessionID() string             { return "test-session" }
func (f *fakeContext) ClientVersion() string         { return "ssh-test-client" }
func (f *fakeContext) ServerVersion() string         { return "ssh-test-server" }
func (f *fakeContext) RemoteAddr() net.Addr          { return f.remote }
func (f *fakeContext) LocalAddr() net.Addr           { return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 2222} }
func (f *fakeContext) Permissions() *ssh.Permissions { return &ssh.Permissions{} }
func (f *fakeContext) SetValue(key, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}
func (f *fakeContext) Value(key interface{}) interface{} {
	f.mu.Lock()
	v, ok := f.values[key]
	f.mu.Unlock()
	if ok {
		return v
	}
	return f.Context.Value(key)
}

// fakeSession implements the session methods the middleware touches; anything else
// falls through to the nil embedded interface.
type fakeSession struct {
	ssh.Session
	ctx    *fakeContext
	remote net.Addr
	user   string
	pty    ssh.Pty
	hasPTY bool

	mu     sync.Mutex
	writes []string
}

func newFakeSession(ctx context.Context, user string, remote net.Addr) *fakeSession {
	return &fakeSession{
		ctx:    newFakeContext(ctx, user, remote),
		remote: remote,
		user:   user,
		pty:    ssh.Pty{Term: "xterm-kitty", Window: ssh.Window{Width: 80, Height: 24}},
		hasPTY: true,
	}
}

func (f *fakeSession) Read([]byte) (int, error) { return 0, io.EOF }
func (f *fakeSession) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, string(p))
	return len(p), nil
}
func (f *fakeSession) Close() error          { return nil }
func (f *fakeSession) CloseWrite() error     { return nil }
func (f *fakeSession) Stderr() io.ReadWriter { return &bytes.Buffer{} }
func (f *fakeSession) User() string          { return f.user }
func (f *fakeSession) RemoteAddr() net.Addr  { return f.remote }
func (f *fakeSession) LocalAddr() net.Addr   { return f.ctx.LocalAddr() }
func (f *fakeSession) Environ() []string     { return []string{"TERM=" + f.pty.Term} }
func (f *fakeSession) Exit(int) error        { return nil }
func (f *fakeSession) Command() []string     { return nil }
func (f *fakeSession) RawCommand() string    { return "" }
func (f *fakeSession) Subsystem() string     { return "" }
func (f *fakeSession) Context() ssh.Context  { return f.ctx }
func (f *fakeSession) EmulatedPty() bool     { return false }
func (f *fakeSession) Pty() (ssh.Pty, <-chan ssh.Window, bool) {
	return f.pty, nil, f.hasPTY
}

func (f *fakeSession) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func tcpAddr(ip string) net.Addr {
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: 50022}
}
