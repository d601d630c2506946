package container

import (
	"os"
	"strings"
)

var (
	dockerEnvPath = "/.dockerenv"
	cgroupPath    = "/proc/1/cgroup"
)

// IsContainerised reports whether the process is likely inside a container,
// going by /.dockerenv, the init cgroup or Kubernetes service variables
func IsContainerised() bool {
	return hasDockerEnvFile() || isInContainerCGroup() || isInKubernetesPod()
}

func hasDockerEnvFile() bool {
	_, err := os.Stat(dockerEnvPath)
	return err == nil
}

func isInContainerCGroup() bool {
	data, err := os.ReadFile(cgroupPath)
	if err != nil {
		return false
	}
	content := string(data)
	for _, marker := range []string{"docker", "containerd", "kubepods", "libpod"} {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

func isInKubernetesPod() bool {
	return os.Getenv("KUBERNETES_SERVICE_HOST") != ""
}
