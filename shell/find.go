package shell

import (
	"os"
	"os/exec"
	"os/user"
	"strings"
)

var commonShells = []string{"/bin/bash", "/usr/bin/bash", "/bin/zsh", "/usr/bin/zsh", "/bin/sh"}

// FindShell returns preferred when it exists, otherwise the user's login
// shell from /etc/passwd, otherwise the first common shell found. A
// preferred name without a slash, such as "ssh", is looked up in PATH.
func FindShell(preferred string) string {
	if preferred != "" && !strings.Contains(preferred, "/") {
		if path, err := exec.LookPath(preferred); err == nil {
			return path
		}
	} else if preferred != "" {
		if _, err := os.Stat(preferred); err == nil {
			return preferred
		}
	}

	// Get shell from /etc/passwd, not the environment
	if currentUser, err := user.Current(); err == nil {
		if data, err := os.ReadFile("/etc/passwd"); err == nil {
			if shell := passwdShell(string(data), currentUser.Username); shell != "" {
				if _, err := os.Stat(shell); err == nil {
					return shell
				}
			}
		}
	}

	// Fallback to common shells
	for _, shell := range commonShells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// passwdShell returns username's shell from passwd file contents.
func passwdShell(passwd, username string) string {
	for _, line := range strings.Split(passwd, "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 7 && fields[0] == username {
			return strings.TrimSpace(fields[6])
		}
	}
	return ""
}
