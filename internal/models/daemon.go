package models

import (
	"fmt"
	"time"
)

// DaemonInfo represents the daemon connection information.
// This corresponds to ~/.nearby/daemon.yaml.
type DaemonInfo struct {
	Version   int       `yaml:"version"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	WebPort   int       `yaml:"web_port,omitempty"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(host string, port, pid int) *DaemonInfo {
	return &DaemonInfo{
		Version:   1,
		Host:      host,
		Port:      port,
		PID:       pid,
		StartedAt: time.Now().UTC(),
	}
}

// Address returns the gRPC dial target.
func (d *DaemonInfo) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}
