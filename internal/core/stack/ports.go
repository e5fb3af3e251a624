package stack

// MergePorts builds the ports map cached on a stack record from live engine bindings.
// The result holds exactly the expected services, or is nil when any expected service
// has no published port (the stack is down or only partially up).
func MergePorts(expected []string, live map[string]int) map[string]int {
	if len(expected) == 0 {
		return nil
	}

	ports := make(map[string]int, len(expected))
	for _, service := range expected {
		port, ok := live[service]
		if !ok || port <= 0 {
			return nil
		}
		ports[service] = port
	}
	return ports
}

// PortsEqual reports whether two ports maps hold the same bindings.
// A nil map and an empty map are equal.
func PortsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
