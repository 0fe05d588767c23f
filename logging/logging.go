// Package logging provides the component-scoped logrus convention used
// across the stack: every package gets its own *logrus.Entry carrying a
// "component" field, rather than passing a bare *logrus.Logger around.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

var root = log.New()

func init() {
	root.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// SetLevel adjusts the root logger's verbosity.
func SetLevel(level log.Level) {
	root.SetLevel(level)
}

// SetOutput redirects the root logger, mainly for tests.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

// New returns a logger scoped to component, e.g. logging.New("ssdp.host").
func New(component string) *log.Entry {
	return root.WithField("component", component)
}
