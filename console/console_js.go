//go:build js && wasm

package console

import (
	"strings"
	"syscall/js"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger constructs a zap logger that writes to the browser console.
func NewLogger(level string) (*zap.Logger, error) {
	core := &browserCore{
		LevelEnabler: parseLevel(level),
		enc:          zapcore.NewConsoleEncoder(encoderConfig()),
	}
	return zap.New(core), nil
}

// browserCore maps zap levels onto console.debug/log/warn/error.
type browserCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
}

func (c *browserCore) With(fields []zapcore.Field) zapcore.Core {
	enc := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return &browserCore{LevelEnabler: c.LevelEnabler, enc: enc}
}

func (c *browserCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *browserCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	defer buf.Free()

	method := "log"
	switch {
	case ent.Level >= zapcore.ErrorLevel:
		method = "error"
	case ent.Level == zapcore.WarnLevel:
		method = "warn"
	case ent.Level == zapcore.DebugLevel:
		method = "debug"
	}
	js.Global().Get("console").Call(method, strings.TrimSuffix(buf.String(), "\n"))
	return nil
}

func (c *browserCore) Sync() error { return nil }
