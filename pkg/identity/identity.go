// Package identity reads the host facts that requests are signed with.
package identity

import (
	"os"
	"strings"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
)

const (
	// DefaultMachineIDPath is the systemd machine id.
	DefaultMachineIDPath = "/etc/machine-id"
	// DefaultHostnamePath is the kernel's view of the hostname.
	DefaultHostnamePath = "/proc/sys/kernel/hostname"
)

// Identity names this host to the configuration server.
type Identity struct {
	MachineID string
	Hostname  string
}

// Reader reads an Identity from host-local files.
type Reader struct {
	MachineIDPath string
	HostnamePath  string
}

// Default reads from the standard host locations.
var Default = Reader{
	MachineIDPath: DefaultMachineIDPath,
	HostnamePath:  DefaultHostnamePath,
}

// Read returns the trimmed machine id and hostname. Either file being
// unreadable is an IdentityRead fault.
func (r Reader) Read() (Identity, error) {
	mid, err := os.ReadFile(r.MachineIDPath)
	if err != nil {
		return Identity{}, fault.Wrap(fault.IdentityRead, err, "unable to read machine id")
	}
	hostname, err := os.ReadFile(r.HostnamePath)
	if err != nil {
		return Identity{}, fault.Wrap(fault.IdentityRead, err, "unable to read hostname")
	}
	return Identity{
		MachineID: strings.TrimSpace(string(mid)),
		Hostname:  strings.TrimSpace(string(hostname)),
	}, nil
}
