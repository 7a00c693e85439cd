//go:build unix

package socket

import (
	"net"
	"testing"

	"golang.org/x/sys/unix"
)

// tcpPair returns the server side of a loopback TCP connection.
func tcpPair(t *testing.T) *net.TCPConn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback listener unavailable: %v", err)
	}
	defer ln.Close()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server.(*net.TCPConn)
}

func withFD(t *testing.T, conn *net.TCPConn, fn func(fd int)) {
	t.Helper()
	raw, err := conn.SyscallConn()
	if err != nil {
		t.Fatalf("SyscallConn failed: %v", err)
	}
	if err := raw.Control(func(fd uintptr) { fn(int(fd)) }); err != nil {
		t.Fatalf("Control failed: %v", err)
	}
}

func TestTuneAppliesOptions(t *testing.T) {
	conn := tcpPair(t)
	// Go enables TCP_NODELAY on accepted sockets; clear it so Tune has work to do.
	if err := conn.SetNoDelay(false); err != nil {
		t.Fatalf("SetNoDelay failed: %v", err)
	}

	withFD(t, conn, func(fd int) {
		if err := Tune(fd, DefaultConfig()); err != nil {
			t.Fatalf("Tune failed: %v", err)
		}
		v, err := unix.GetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY)
		if err != nil {
			t.Fatalf("GetsockoptInt failed: %v", err)
		}
		if v == 0 {
			t.Error("TCP_NODELAY not set")
		}
		v, err = unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE)
		if err != nil {
			t.Fatalf("GetsockoptInt failed: %v", err)
		}
		if v == 0 {
			t.Error("SO_KEEPALIVE not set")
		}
	})
}

func TestShutdownHalfCloses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback listener unavailable: %v", err)
	}
	defer ln.Close()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()
	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	defer server.Close()

	withFD(t, server.(*net.TCPConn), func(fd int) {
		if err := Shutdown(fd); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
	})

	// The client sees EOF while the server can still read.
	buf := make([]byte, 1)
	if n, err := client.Read(buf); n != 0 || err == nil {
		t.Errorf("client Read = %d, %v; want EOF", n, err)
	}
	if _, err := client.Write([]byte("x")); err != nil {
		t.Fatalf("client Write failed: %v", err)
	}
	if n, err := server.Read(buf); n != 1 || err != nil {
		t.Errorf("server Read = %d, %v; want 1 byte", n, err)
	}
}
