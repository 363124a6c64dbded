package vp

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/protolens/vpbridge/internal/config"
)

// gdbCmdFile is the scratch file the helper launcher writes to the process
// working directory each time it is launched (§6: "Persisted state... A
// scratch file gdbcmd").
const gdbCmdFile = "gdbcmd"

// LaunchGDBHelper starts the GDB TUI helper (gdbgui fronting a gdb session)
// attached to binPath with the given architecture. Grounded on
// PLS/src/gdb_proxy.rs::start_gdbgui: write the gdbcmd file, then spawn
// `gdbgui -p <port> -g "<gdb_bin> --command gdbcmd <binPath>"`.
func LaunchGDBHelper(opt config.GDBOptions, arch, binPath string) (*exec.Cmd, error) {
	cmds := fmt.Sprintf("set architecture riscv:%s\ntarget remote 127.0.0.1:%d", arch, opt.GDBProxyPort)
	if err := os.WriteFile(gdbCmdFile, []byte(cmds), 0o644); err != nil {
		return nil, fmt.Errorf("vp: writing %s: %w", gdbCmdFile, err)
	}

	if opt.GDBGui == "" {
		return nil, fmt.Errorf("vp: gdbgui path is empty")
	}
	if opt.GDBBin == "" {
		return nil, fmt.Errorf("vp: gdb path is empty")
	}

	gArg := fmt.Sprintf("%s --command %s %s", opt.GDBBin, gdbCmdFile, binPath)
	args := []string{"-p", fmt.Sprintf("%d", opt.GDBGuiPort), "-g", gArg}

	cmd := exec.Command(opt.GDBGui, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("vp: gdbgui spawn failed: %w", err)
	}
	return cmd, nil
}
