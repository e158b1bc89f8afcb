package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Init(level zerolog.Level, logFile string) {
	var w io.Writer = os.Stderr

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		w = zerolog.MultiLevelWriter(os.Stderr, file)
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	if level == zerolog.DebugLevel {
		log.Debug().Msg("Log level set to DEBUG")
	}
}
