package culaunch

// libcuda.so discovery.
//
// Order: CULAUNCH_LIBCUDA_PATH env override, the default soname pair, the
// ldconfig cache, then LD_LIBRARY_PATH. Every candidate is handed to dlopen
// in turn; the first one that opens wins.

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EnvLibcudaPath overrides libcuda.so discovery. It may point at the library
// itself or at the directory containing it.
const EnvLibcudaPath = "CULAUNCH_LIBCUDA_PATH"

func libcudaCandidates() []string {
	if p := os.Getenv(EnvLibcudaPath); p != "" {
		if st, err := os.Stat(p); err == nil && st.IsDir() {
			return []string{filepath.Join(p, "libcuda.so"), filepath.Join(p, "libcuda.so.1")}
		}
		return []string{p}
	}

	// Bare sonames first: the dynamic loader searches its own cache and
	// rpath, which covers the common install.
	candidates := []string{"libcuda.so.1", "libcuda.so"}

	if out, err := exec.Command("/sbin/ldconfig", "-p").Output(); err == nil {
		candidates = append(candidates, parseLdconfig(string(out))...)
	}

	for _, dir := range filepath.SplitList(os.Getenv("LD_LIBRARY_PATH")) {
		p := filepath.Join(dir, "libcuda.so")
		if _, err := os.Stat(p); err == nil {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// parseLdconfig extracts libcuda locations from `ldconfig -p` output.
// Each line looks like:
//
//	libcuda.so.1 (libc6,x86-64) => /lib/x86_64-linux-gnu/libcuda.so.1
func parseLdconfig(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "libcuda.so") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		loc := fields[len(fields)-1]
		if strings.HasPrefix(loc, "/") {
			paths = append(paths, loc)
		}
	}
	return paths
}
