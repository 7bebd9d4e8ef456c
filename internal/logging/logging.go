package logging

import (
	"log"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Configure routes the standard logger to a rotating file inside baseDir.
// Interactive output stays on the terminal; diagnostics go here.
func Configure(baseDir string) {
	log.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(baseDir, "podkeep.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
