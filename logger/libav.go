package logger

import (
	"github.com/asticode/go-astiav"
)

// LevelToAstiav maps a go-belt logging level to the closest libav one.
func LevelToAstiav(level Level) astiav.LogLevel {
	switch level {
	case LevelUndefined:
		return astiav.LogLevelQuiet
	case LevelFatal:
		return astiav.LogLevelFatal
	case LevelPanic:
		return astiav.LogLevelPanic
	case LevelError:
		return astiav.LogLevelError
	case LevelWarning:
		return astiav.LogLevelWarning
	case LevelInfo:
		return astiav.LogLevelInfo
	case LevelDebug:
		return astiav.LogLevelVerbose
	case LevelTrace:
		return astiav.LogLevelDebug
	default:
		return astiav.LogLevelWarning
	}
}

// LevelFromAstiav is the reverse of LevelToAstiav.
func LevelFromAstiav(level astiav.LogLevel) Level {
	switch level {
	case astiav.LogLevelQuiet:
		return LevelUndefined
	case astiav.LogLevelFatal:
		return LevelFatal
	case astiav.LogLevelPanic:
		return LevelPanic
	case astiav.LogLevelError:
		return LevelError
	case astiav.LogLevelWarning:
		return LevelWarning
	case astiav.LogLevelInfo:
		return LevelInfo
	case astiav.LogLevelVerbose:
		return LevelDebug
	case astiav.LogLevelDebug, astiav.LogLevelTrace:
		return LevelTrace
	default:
		return LevelWarning
	}
}
