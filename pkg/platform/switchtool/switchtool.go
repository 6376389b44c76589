package switchtool

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// command is the binding to the host's switch tool.
type command interface {
	Switch(image string) (args []string, stdout string, err error)
	Status() (bool, error)
}

// executable runs the switch tool found in searchPath. The tool sees
// searchPath as its PATH and nothing else from the agent's environment.
type executable struct {
	name       string
	searchPath string
}

// lookPath resolves the tool inside the search path only; the agent's own
// PATH is never consulted.
func (e *executable) lookPath() (string, error) {
	if strings.Contains(e.name, "/") {
		return e.name, checkExecutable(e.name)
	}
	for _, dir := range filepath.SplitList(e.searchPath) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, e.name)
		if err := checkExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Errorf("%s not found in search path %q", e.name, e.searchPath)
}

func checkExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() || fi.Mode()&0111 == 0 {
		return errors.Errorf("%s is not executable", path)
	}
	return nil
}

// runOk runs the tool with args. Any output on stderr is failure whatever the
// exit code, and so is a non-zero exit.
func (e *executable) runOk(args []string) (string, error) {
	log := logging.New("switchtool")

	bin, err := e.lookPath()
	if err != nil {
		return "", fault.Wrapf(fault.Apply, err, "failed to execute %s %v", e.name, args)
	}

	cmd := exec.Command(bin, args...)
	cmd.Env = []string{"PATH=" + e.searchPath}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if logging.Debuggable {
		log.WithFields(logrus.Fields{
			"cmd": cmd.String(),
		}).Debug("executing")
	}

	if err := cmd.Start(); err != nil {
		return "", fault.Wrapf(fault.Apply, err, "failed to start %s %v", e.name, args)
	}
	waitErr := cmd.Wait()

	if logging.Debuggable {
		log.WithFields(logrus.Fields{
			"cmd":    cmd.String(),
			"stdout": stdout.String(),
			"stderr": stderr.String(),
		}).Debug("command completed")
	}

	if stderr.Len() > 0 {
		return "", fault.Errorf(fault.Apply, "stderr not empty - failed to execute %s %q: %s",
			e.name, args, stderr.String())
	}
	if waitErr != nil {
		return "", fault.Wrapf(fault.Apply, waitErr, "failed to execute %s %q", e.name, args)
	}
	return stdout.String(), nil
}

func (e *executable) Switch(image string) ([]string, string, error) {
	args := []string{CommandSwitch, image, FlagApply}
	out, err := e.runOk(args)
	return args, out, err
}

func (e *executable) Status() (bool, error) {
	_, err := e.lookPath()
	return err == nil, err
}
