package utils

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
	spewConfig.Indent = "  "
}

func Dump(a ...interface{}) {
	fmt.Println(spewConfig.Sdump(a...))
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// LogDump writes dump at debug level only, dumping is expensive
func LogDump(l logrus.FieldLogger, msg string, a ...interface{}) {
	switch lg := l.(type) {
	case *logrus.Logger:
		if !lg.IsLevelEnabled(logrus.DebugLevel) {
			return
		}
	case *logrus.Entry:
		if !lg.Logger.IsLevelEnabled(logrus.DebugLevel) {
			return
		}
	}
	l.Debugf("%s:\n%s", msg, spewConfig.Sdump(a...))
}
