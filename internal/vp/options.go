package vp

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/protolens/vpbridge/internal/domain/command"
	"github.com/protolens/vpbridge/internal/inventory"
)

// Resolved is the output of the start-options resolver (C8).
type Resolved struct {
	Params StartParams
	Arch   string // "" unless debug mode was requested
}

// cacheKey ties a resolution to the exact inputs it was computed from,
// including the inventory generation, so a rescan invalidates stale
// memoized results without the cache ever comparing Snapshot values.
type cacheKey struct {
	vp, proj, args, gdbArch string
	invGen                  uint64
}

// Resolver computes VP start parameters from a StartCommand and an
// Inventory snapshot (C8). Grounded on PLS/src/options.rs::get_vp_args +
// get_guivp_args. Results are memoized in an LRU cache keyed by the exact
// request plus the inventory generation, mirroring the teacher's
// PeerEnricher cache-aside pattern (service/peer_enricher.go) since
// resolution is pure given its inputs and StartCommands frequently repeat
// (UI "restart with same options" flows).
type Resolver struct {
	cache      *lru.Cache[cacheKey, Resolved]
	debugPort  int
	tracePort  int
	guiKitDir  string
	guiKitArgs string
}

// NewResolver builds a Resolver. debugPort/tracePort are vp_opt's ports;
// guiKitDir/guiKitArgs are gui_vp_kit_dir/gui_vp_args from Config.
func NewResolver(debugPort, tracePort int, guiKitDir, guiKitArgs string) (*Resolver, error) {
	cache, err := lru.New[cacheKey, Resolved](256)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		cache:      cache,
		debugPort:  debugPort,
		tracePort:  tracePort,
		guiKitDir:  guiKitDir,
		guiKitArgs: guiKitArgs,
	}, nil
}

// Resolve implements §4.8's five-step resolution. ok is false if resolution
// failed for any reason named in §4.8 (unknown VP/project, missing
// --debug-bus-mode, invalid gdb_arch) — the caller (C6) sends no UI reply
// on failure, per §9's resolved open question.
func (r *Resolver) Resolve(start command.Start, inv inventory.Snapshot, invGen uint64) (Resolved, bool) {
	key := cacheKey{vp: start.VP, proj: start.Proj, args: start.Args, gdbArch: start.GDBArch, invGen: invGen}
	if cached, ok := r.cache.Get(key); ok {
		return cached, true
	}

	resolved, ok := r.resolve(start, inv)
	if ok {
		r.cache.Add(key, resolved)
	}
	return resolved, ok
}

func (r *Resolver) resolve(start command.Start, inv inventory.Snapshot) (Resolved, bool) {
	vpPath, ok := inv.FindVP(start.VP)
	if !ok {
		return Resolved{}, false
	}

	binary, extraArgs, ok := r.resolveBinary(start, inv)
	if !ok {
		return Resolved{}, false
	}

	args := start.Args + extraArgs

	var arch string
	mode := Stream
	if strings.Contains(args, "--debug-mode") {
		if start.GDBArch != "rv32" && start.GDBArch != "rv64" {
			return Resolved{}, false
		}
		arch = start.GDBArch
		mode = Step
		args += fmt.Sprintf(" --debug-port %d", r.debugPort)
	}

	if strings.Contains(args, "--debug-bus-mode") {
		args += fmt.Sprintf(" --debug-bus-port %d", r.tracePort)
	} else {
		return Resolved{}, false
	}

	return Resolved{
		Params: StartParams{
			VPPath:    vpPath,
			Binary:    binary,
			Args:      strings.Fields(args),
			Mode:      mode,
			TracePort: r.tracePort,
		},
		Arch: arch,
	}, true
}

// resolveBinary implements §4.8 step 2-3: ordinarily the project's nominated
// binary; for a "linux" VP, the GUI-VP-Kit firmware image and its extra
// args are substituted instead (supplementing spec.md from
// PLS/src/options.rs::get_guivp_args, referenced but not spelled out by
// spec.md §4.8 step 3's "override the binary and append additional
// arguments computed from a Linux-helper template").
func (r *Resolver) resolveBinary(start command.Start, inv inventory.Snapshot) (binary, extraArgs string, ok bool) {
	if strings.Contains(start.VP, "linux") {
		args, bin := guiVPArgs(start.VP, r.guiKitDir, r.guiKitArgs)
		return bin, args, true
	}
	proj, ok := inv.FindProject(start.Proj)
	if !ok {
		return "", "", false
	}
	return proj.Directory + "/" + proj.Binary, "", true
}

// guiVPArgs computes the Linux-VP argument/binary template (§4.8 step 3):
// architecture rv32 if vpName contains "32" else rv64; core count "mc" if
// vpName contains "mc" else "sc"; memory 1 GiB for rv32, 2 GiB for rv64.
func guiVPArgs(vpName, kitDir, extraArgs string) (args, binary string) {
	rv := "64"
	memSize := 2 * 1024 * 1024 * 1024
	if strings.Contains(vpName, "32") {
		rv = "32"
		memSize = 1024 * 1024 * 1024
	}
	cores := "sc"
	if strings.Contains(vpName, "mc") {
		cores = "mc"
	}

	args = fmt.Sprintf(
		" %s --dtb-file=%s/dt/linux-vp_rv%s_%s.dtb --kernel-file %s/buildroot_rv%s/output/images/Image"+
			" --mram-root-image %s/runtime_mram/mram_rv%s_root.img --mram-data-image %s/runtime_mram/mram_rv%s_data.img"+
			" --memory-size "+strconv.Itoa(memSize),
		extraArgs, kitDir, rv, cores, kitDir, rv, kitDir, rv, kitDir, rv,
	)
	binary = fmt.Sprintf("%s/buildroot_rv%s/output/images/fw_jump.elf", kitDir, rv)
	return args, binary
}
