package switchtool

import (
	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/bottlerocket-os/switchdog/pkg/platform"
	"github.com/pkg/errors"
)

// Assert the switch tool as a platform implementor.
var _ platform.Platform = (*Platform)(nil)

// Platform converges the host by running the switch tool.
type Platform struct {
	log  logging.Logger
	host command
}

// New binds to the executable name resolved within searchPath. Empty values
// select DefaultCommand and DefaultSearchPath.
func New(log logging.Logger, name, searchPath string) (*Platform, error) {
	if name == "" {
		name = DefaultCommand
	}
	if searchPath == "" {
		searchPath = DefaultSearchPath
	}
	if name == "." || name == ".." {
		return nil, errors.Errorf("invalid switch command %q", name)
	}
	return &Platform{
		log:  log,
		host: &executable{name: name, searchPath: searchPath},
	}, nil
}

type status bool

func (s status) OK() bool {
	return bool(s)
}

// Status reports whether the switch tool can be found.
func (p *Platform) Status() (platform.Status, error) {
	p.log.Debug("querying status")
	ok, err := p.host.Status()
	if err != nil {
		return status(false), err
	}
	return status(ok), nil
}

// Switch runs `switch <image> --apply` and returns its standard output.
func (p *Platform) Switch(image string) (*platform.Output, error) {
	if image == "" {
		return nil, fault.New(fault.Apply, "no image to switch to")
	}
	p.log.WithField("image", image).Info("updating")
	args, out, err := p.host.Switch(image)
	if err != nil {
		return nil, err
	}
	p.log.WithField("args", args).WithField("output", out).Debug("switch output")
	return &platform.Output{Args: args, Stdout: out}, nil
}
