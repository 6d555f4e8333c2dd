// Package logging wires the process-wide zerolog logger: a rotating file
// sink plus a console writer, replacing the original's dual
// RotatingFileHandler/StreamHandler setup and the teacher's bare
// log.Printf calls.
package logging

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points the global logger at logDir/app.log (rotated at 1MB, 5
// backups, matching the original's RotatingFileHandler sizing) and a
// color-aware console writer, then applies level.
func Setup(logDir string, level zerolog.Level) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    1,
		MaxBackups: 5,
	}

	var consoleOut = os.Stdout
	writer := zerolog.ConsoleWriter{Out: consoleOut, TimeFormat: "2006-01-02 15:04:05"}
	if !isatty.IsTerminal(consoleOut.Fd()) {
		writer.NoColor = true
	} else {
		writer.Out = colorable.NewColorable(consoleOut)
	}

	multi := zerolog.MultiLevelWriter(writer, fileWriter)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	return nil
}
