/*
Copyright 2025 The HCI E2E Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package specs

import (
	"fmt"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/cloudinit"
	"github.com/hcitest/hci-e2e/pkg/document"
)

const guestAgentPackage = "qemu-guest-agent"

var guestAgentCommand = []string{"systemctl", "enable", "--now", "qemu-guest-agent.service"}

// MgmtNetwork reports whether the machine is attached to the management network.
func (v *VMSpec) MgmtNetwork() bool {
	for _, n := range v.Networks {
		if n.IsPodNetwork() {
			return true
		}
	}
	return false
}

// SetMgmtNetwork attaches the machine to the management network as its first
// interface, or detaches every management network interface.
func (v *VMSpec) SetMgmtNetwork(enabled bool) {
	if enabled {
		if !v.MgmtNetwork() {
			entry := newNetworkEntry(v1beta1.DefaultMgmtNetworkName, v1beta1.MgmtNetwork, nil)
			v.Networks = append([]NetworkEntry{entry}, v.Networks...)
		}
		return
	}

	kept := make([]NetworkEntry, 0, len(v.Networks))
	for _, n := range v.Networks {
		if !n.IsPodNetwork() {
			kept = append(kept, n)
		}
	}
	v.Networks = kept
}

// GuestAgent reports whether the user data enables the guest agent.
func (v *VMSpec) GuestAgent() bool {
	cfg, err := cloudinit.Parse(v.UserData)
	if err != nil {
		return false
	}
	return cloudinit.HasRunCmd(cfg, guestAgentCommand)
}

// SetGuestAgent installs and enables the guest agent through the user data,
// or removes both entries. It fails if the user data is not valid cloud-config.
func (v *VMSpec) SetGuestAgent(enabled bool) error {
	cfg, err := cloudinit.Parse(v.UserData)
	if err != nil {
		return fmt.Errorf("cannot toggle guest agent: %w", err)
	}
	cloudinit.SetPackage(cfg, guestAgentPackage, enabled)
	cloudinit.SetRunCmd(cfg, guestAgentCommand, enabled)

	userData, err := cloudinit.Render(cfg)
	if err != nil {
		return err
	}
	v.UserData = userData
	return nil
}

// SetUserData replaces the user data, adding the cloud-config header if missing.
func (v *VMSpec) SetUserData(data string) {
	v.UserData = cloudinit.EnsureHeader(data)
}

// EFIBoot reports whether the machine boots through UEFI firmware.
func (v *VMSpec) EFIBoot() bool {
	_, ok := document.Map(v.firmware, "bootloader", "efi")
	return ok
}

// SetEFIBoot switches UEFI firmware on or off. Switching it off also drops
// secure boot since both live in the removed sub-documents.
func (v *VMSpec) SetEFIBoot(enabled bool) {
	if !enabled {
		delete(v.firmware, "bootloader")
		delete(v.features, "smm")
		return
	}
	if v.EFIBoot() {
		return
	}
	v.firmware["bootloader"] = map[string]interface{}{
		"efi": map[string]interface{}{
			"secureBoot": false,
		},
	}
	v.features["smm"] = map[string]interface{}{
		"enabled": false,
	}
}

// SecureBoot reports whether UEFI secure boot is enabled.
func (v *VMSpec) SecureBoot() bool {
	on, _ := document.Bool(v.firmware, "bootloader", "efi", "secureBoot")
	return on
}

// SetSecureBoot enables secure boot, turning UEFI on first. Disabling it
// cycles UEFI off and on again, which leaves UEFI enabled with secure boot
// cleared even when UEFI was off before the call.
func (v *VMSpec) SetSecureBoot(enabled bool) {
	if !enabled {
		v.SetEFIBoot(false)
		v.SetEFIBoot(true)
		return
	}
	v.SetEFIBoot(true)
	efi, _ := document.Map(v.firmware, "bootloader", "efi")
	efi["secureBoot"] = true
	v.features["smm"] = map[string]interface{}{
		"enabled": true,
	}
}
