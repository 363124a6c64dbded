// Package inventory discovers VP executables and project directories from
// the filesystem (an external collaborator per spec.md §1: "filesystem
// discovery of VP binaries and source projects").
//
// Grounded on PLS/src/options.rs::load_projects/load_vps/get_project: a
// project directory is eligible if it contains an executable file (or one
// with a .elf extension), nominated as its binary; the same directory's .c
// or .S file (if any) is recorded as its source. A VP directory entry is
// eligible if it is a regular executable file.
package inventory

import (
	"os"
	"path/filepath"
	"strings"
)

// Project is one discovered project directory: its nominated binary and
// (optional) source file basename.
type Project struct {
	Directory string
	Binary    string
	Source    string
}

// Snapshot is the Inventory contract C8 and C6 consume: the discovered
// projects and VP executable paths.
type Snapshot struct {
	Projects []Project
	VPs      []string // absolute paths
}

// Transfer is the wire shape sent to UI clients: basenames only
// (§6: "{dirs: [..], vps: [..]}").
type Transfer struct {
	Dirs []string `json:"dirs"`
	VPs  []string `json:"vps"`
}

// ToTransfer reduces a Snapshot to basenames for the UI.
func (s Snapshot) ToTransfer() Transfer {
	t := Transfer{Dirs: make([]string, 0, len(s.Projects)), VPs: make([]string, 0, len(s.VPs))}
	for _, p := range s.Projects {
		t.Dirs = append(t.Dirs, filepath.Base(p.Directory))
	}
	for _, v := range s.VPs {
		t.VPs = append(t.VPs, filepath.Base(v))
	}
	return t
}

// FindVP returns the full path of the VP whose basename equals name.
func (s Snapshot) FindVP(name string) (string, bool) {
	for _, v := range s.VPs {
		if filepath.Base(v) == name {
			return v, true
		}
	}
	return "", false
}

// FindProject returns the project whose directory basename equals name.
func (s Snapshot) FindProject(name string) (Project, bool) {
	for _, p := range s.Projects {
		if filepath.Base(p.Directory) == name {
			return p, true
		}
	}
	return Project{}, false
}

// Load scans projectsDir (Config's bin_dir) for project directories and
// vpsDir (Config's vp_dir) for executable VP files.
func Load(projectsDir, vpsDir string) (Snapshot, error) {
	projects, err := loadProjects(projectsDir)
	if err != nil {
		return Snapshot{}, err
	}
	vps, err := loadVPs(vpsDir)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Projects: projects, VPs: vps}, nil
}

func loadProjects(dir string) ([]Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var projects []Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if p, ok := scanProject(path); ok {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

func scanProject(dir string) (Project, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Project{}, false
	}
	var bin, src string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		name := e.Name()
		executable := info.Mode()&0o111 != 0
		if executable || strings.HasSuffix(name, ".elf") {
			bin = name
		} else if strings.HasSuffix(name, ".c") || strings.HasSuffix(name, ".S") {
			src = name
		}
	}
	if bin == "" {
		return Project{}, false
	}
	return Project{Directory: dir, Binary: bin, Source: src}, true
}

func loadVPs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var vps []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Mode()&0o111 != 0 {
			vps = append(vps, filepath.Join(dir, e.Name()))
		}
	}
	return vps, nil
}
