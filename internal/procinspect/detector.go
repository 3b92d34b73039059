// Package procinspect walks a process's descendant tree through procfs to
// find a known interactive CLI agent running underneath it.
package procinspect

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Result is empty when no configured agent name was found under the
// inspected PID.
type Result struct {
	Agent      string
	WorkingDir string
}

// Empty reports whether the search found nothing.
func (r Result) Empty() bool {
	return r.Agent == ""
}

// Detector matches process comm strings against a fixed list of known
// agent names.
type Detector struct {
	knownAgents []string
}

// New builds a Detector that recognizes the given agent names as
// substrings of a process's comm.
func New(knownAgents []string) *Detector {
	return &Detector{knownAgents: knownAgents}
}

// Detect walks pid's descendants depth-first and returns the first
// process whose comm contains a known agent name. Invalid PIDs yield an
// empty Result immediately; unreadable /proc entries are skipped rather
// than treated as errors.
func (d *Detector) Detect(pid int) Result {
	if pid <= 0 {
		return Result{}
	}
	var result Result
	searchTree(pid, d.knownAgents, &result)
	return result
}

func searchTree(pid int, knownAgents []string, result *Result) bool {
	for _, child := range children(pid) {
		comm := readComm(child)
		if comm == "" {
			continue
		}

		for _, agent := range knownAgents {
			if strings.Contains(comm, agent) {
				result.Agent = agent
				result.WorkingDir = readCwd(child)
				return true
			}
		}

		if searchTree(child, knownAgents, result) {
			return true
		}
	}
	return false
}

func readComm(pid int) string {
	f, err := os.Open(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func readCwd(pid int) string {
	target, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid))
	if err != nil {
		return ""
	}
	return target
}

func children(pid int) []int {
	taskDir := fmt.Sprintf("/proc/%d/task", pid)
	entries, err := os.ReadDir(taskDir)
	if err != nil {
		return nil
	}

	var out []int
	for _, entry := range entries {
		data, err := os.ReadFile(taskDir + "/" + entry.Name() + "/children")
		if err != nil {
			continue
		}
		for _, field := range strings.Fields(string(data)) {
			if n, err := strconv.Atoi(field); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}
