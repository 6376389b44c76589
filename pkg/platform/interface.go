package platform

import "github.com/pkg/errors"

// Platform is implemented by the host binding that converges the host onto a
// container image.
type Platform interface {
	// Status reports whether the platform is usable right now.
	Status() (Status, error)
	// Switch stages image and applies it. The call blocks until the
	// platform's tooling has finished.
	Switch(image string) (*Output, error)
}

// Status reports the readiness of the underlying platform.
type Status interface {
	// OK will return true when the platform is able to assert its status
	// response is accurately reporting from the underlying components.
	OK() bool
}

// Output is what a successful switch produced.
type Output struct {
	// Args is the argument list the switch tool ran with.
	Args []string
	// Stdout is the tool's captured standard output.
	Stdout string
}

// Ping the platform to verify its liveliness and general usability based on its
// status.
func Ping(p Platform) error {
	status, err := p.Status()
	if err != nil {
		return errors.WithMessage(err, "could not retrieve platform status")
	}
	if !status.OK() {
		return errors.New("platform did not report OK status")
	}
	return nil
}
