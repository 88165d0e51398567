package avplayback

import (
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/logger"
)

// SetupLibAVLogging redirects the logs of libav into the given logger.
// The libav logging is global, so it affects every user of libav in
// the process.
func SetupLibAVLogging(l logger.Logger) {
	astiav.SetLogLevel(logger.LevelToAstiav(l.Level()))
	astiav.SetLogCallback(func(c astiav.Classer, level astiav.LogLevel, fmt, msg string) {
		var cs string
		if c != nil {
			if cl := c.Class(); cl != nil {
				cs = " - class: " + cl.String()
			}
		}
		l.Logf(
			logger.LevelFromAstiav(level),
			"%s%s",
			strings.TrimSpace(msg), cs,
		)
	})
}
