package sl

import (
	"log/slog"
	"strings"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func Module(mod string) slog.Attr {
	return slog.String("module", mod)
}

// Secret logs only the first characters of a sensitive value.
func Secret(key, value string) slog.Attr {
	const visible = 5
	if len(value) <= visible {
		return slog.String(key, strings.Repeat("*", len(value)))
	}
	return slog.String(key, value[:visible]+"***")
}
