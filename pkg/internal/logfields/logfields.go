package logfields

import (
	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/sirupsen/logrus"
)

func Commit(token string) logrus.Fields {
	return logrus.Fields{
		logging.SubComponentField: "commit",
		"commit":                  token,
	}
}

func Image(image string) logrus.Fields {
	return logrus.Fields{
		logging.SubComponentField: "apply",
		"image":                   image,
	}
}
