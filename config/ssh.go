package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// SSHConfigPath returns the user's ssh client config path.
func SSHConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".ssh", "config")
}

// SSHHosts lists the Host aliases in an ssh config file, skipping patterns.
// A missing or unreadable file has no hosts.
func SSHHosts(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var hosts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || !strings.EqualFold(fields[0], "host") {
			continue
		}
		for _, h := range fields[1:] {
			if strings.ContainsAny(h, "*?!") {
				continue
			}
			hosts = append(hosts, h)
		}
	}
	return hosts
}
