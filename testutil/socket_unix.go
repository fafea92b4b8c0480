//go:build !windows

package testutil

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

// UnixSocket is a listener that answers every connection with bytes no
// database protocol accepts. A driver dialing it fails with a protocol error
// instead of "connection refused", which proves the socket path was used.
type UnixSocket struct {
	Dir  string
	Path string
}

// ListenUnixSocket listens on name inside a fresh directory until the test ends.
// The directory comes from os.MkdirTemp because t.TempDir paths can exceed
// the length limit of socket addresses.
func ListenUnixSocket(t *testing.T, name string) *UnixSocket {
	t.Helper()

	dir, err := os.MkdirTemp("", "ddlgen-sock")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	listener, err := net.Listen("unix", path)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	t.Cleanup(func() {
		listener.Close()
		os.RemoveAll(dir)
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte("not a database\n"))
			conn.Close()
		}
	}()
	return &UnixSocket{Dir: dir, Path: path}
}
