//go:build linux

package initializer

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// userTimeout reads TCP_USER_TIMEOUT back from the socket.
func userTimeout(tc *net.TCPConn) (time.Duration, error) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var (
		ms      int
		sockErr error
	)
	err = raw.Control(func(fd uintptr) {
		ms, sockErr = unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT)
	})
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, sockErr
}

// noDelay reads TCP_NODELAY back from the socket.
func noDelay(tc *net.TCPConn) (bool, error) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return false, err
	}
	var (
		v       int
		sockErr error
	)
	err = raw.Control(func(fd uintptr) {
		v, sockErr = unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY)
	})
	if err != nil {
		return false, err
	}
	return v != 0, sockErr
}

func TestSocketOptionsAppliedOnLinux(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err == nil {
			defer c.Close()
			_, _ = c.Read(make([]byte, 1))
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	tc := conn.(*net.TCPConn)

	cfg := DefaultSocketOptionsConfig()
	cfg.NoDelay = false
	cfg.UserTimeout = 7 * time.Second
	opts, err := NewSocketOptions(cfg)
	require.NoError(t, err)
	require.NoError(t, opts.Prepare(tc))

	nd, err := noDelay(tc)
	require.NoError(t, err)
	assert.False(t, nd)

	ut, err := userTimeout(tc)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, ut)
}
