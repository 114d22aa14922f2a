//go:build !unix

package utils

import (
	"fmt"
	"net"
)

func checkPortListenable(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
