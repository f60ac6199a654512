package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine id so the raw id never leaves the host.
const AppID = "fclink"

// DefaultDeviceID is used when the machine id is unavailable.
const DefaultDeviceID = "fc"

// MachineID retrieves the unique ID identifying the machine, hashed
// with AppID.
func MachineID() (string, error) {
	return machineid.ProtectedID(AppID)
}

// DeviceID returns the short device id derived from MachineID, or
// DefaultDeviceID when it can't be read.
func DeviceID() string {
	id, err := MachineID()
	if err != nil {
		glog.Warningf("machine id unavailable, using %q: %v", DefaultDeviceID, err)
		return DefaultDeviceID
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
