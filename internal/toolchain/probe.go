package toolchain

import "os/exec"

// Capability is the result of probing the host for an external tool.
type Capability struct {
	// Name is the tool name that was probed for.
	Name string
	// Path is the resolved absolute path. Empty when unavailable.
	Path string
	// Available reports whether the tool was found on the host.
	Available bool
}

// ProbeFunc resolves a tool name to a Capability. Tests substitute fakes.
type ProbeFunc func(name string) Capability

// Probe looks a tool up on PATH.
func Probe(name string) Capability {
	path, err := exec.LookPath(name)
	if err != nil {
		return Capability{Name: name}
	}

	return Capability{Name: name, Path: path, Available: true}
}

// FirstAvailable tries the provided tool names in order and returns the first
// one present on the host. The order is the caller's fixed preference order.
func FirstAvailable(probe ProbeFunc, names ...string) (Capability, bool) {
	for _, name := range names {
		if c := probe(name); c.Available {
			return c, true
		}
	}

	return Capability{}, false
}
