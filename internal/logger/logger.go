// Package logger builds the logrus logger of the tablegen command.
package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a text logger writing to w. verbose lowers the level to
// debug, which also enables statement logging in the runtime drivers.
func New(verbose bool, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
