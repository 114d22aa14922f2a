package server

import (
	"net"
	"os"
	"path/filepath"

	"rtunnel/internal/logger"
)

type ListenAddr struct {
	Network string
	Address string
}

/**
 * Create TCP and Unix socket listeners
 * @param {[]ListenAddr} addrs - Listener Address
 * @returns {[]net.Listener} Array of created listeners
 * @returns {error} Last error if any listener failed
 * @description
 * - Removes a stale socket file before listening on it
 * - Socket files are created 0660
 * @throws
 * - TCP listener creation errors
 * - Unix socket listener creation errors
 */
func CreateListeners(addrs []ListenAddr) ([]net.Listener, error) {
	var listeners []net.Listener

	var lastErr error
	for _, addr := range addrs {
		if addr.Network == "unix" {
			if err := os.Remove(addr.Address); err != nil && !os.IsNotExist(err) {
				logger.Errorf("Failed to remove existing socket file: %v", err)
				lastErr = err
				continue
			}
			if err := os.MkdirAll(filepath.Dir(addr.Address), 0755); err != nil {
				logger.Errorf("Failed to create socket directory: %v", err)
				lastErr = err
				continue
			}
		}
		l, err := net.Listen(addr.Network, addr.Address)
		if err != nil {
			logger.Errorf("Failed to create listener on %s://%s: %v", addr.Network, addr.Address, err)
			lastErr = err
			continue
		}
		if addr.Network == "unix" {
			os.Chmod(addr.Address, 0660)
		}
		logger.Infof("Listening on %s://%s", addr.Network, addr.Address)
		listeners = append(listeners, l)
	}
	return listeners, lastErr
}
