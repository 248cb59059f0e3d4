package spectroset

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/mdobak/go-xerrors"
)

// NewLogger returns a text logger writing to w. Error attributes created
// with xerrors.New are expanded into the message and the frame that
// captured them.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceErrorAttr,
	}))
}

func replaceErrorAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	err, ok := a.Value.Any().(error)
	if !ok {
		return a
	}

	frames := xerrors.StackTrace(err).Frames()
	if len(frames) == 0 {
		return slog.String(a.Key, err.Error())
	}
	f := frames[0]
	return slog.Group(a.Key,
		slog.String("msg", err.Error()),
		slog.String("at", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)))
}
