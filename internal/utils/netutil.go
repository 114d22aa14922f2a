package utils

import (
	"fmt"
	"net"
	"time"
)

// IsPortListening 本机端口是否有进程在监听
func IsPortListening(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", fmt.Sprintf("%d", port)), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

/**
 * Check whether a local port can still be bound
 * @param {int} port - Port number
 * @returns {bool} True when nothing holds the port
 * @description
 * - autossh binds the monitor port and the one after it
 */
func IsPortFree(port int) bool {
	return checkPortListenable(port)
}
