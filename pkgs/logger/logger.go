package logger

import (
	"io"

	"github.com/WangWilly/tweetsim/pkgs/embedding"
	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////
// Logging Configuration Functions
////////////////////////////////////////////////////////////////////////////////

// InitLogger configures the global logrus logger. A nil logFile keeps output
// on stderr only.
func InitLogger(dbg bool, logFile io.Writer) {
	log.SetFormatter(&log.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})

	if dbg {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if logFile != nil {
		log.AddHook(lfshook.NewHook(logFile, &log.JSONFormatter{}))
	}
}

////////////////////////////////////////////////////////////////////////////////

// SetEncoderClientLogger sends the HTTP encoder's request log to out.
func SetEncoderClientLogger(enc embedding.Encoder, out io.Writer) {
	httpEnc, ok := enc.(*embedding.HTTPEncoder)
	if !ok {
		return
	}

	logger := log.New()
	logger.SetLevel(log.InfoLevel)
	logger.SetOutput(out)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		DisableQuote:  true,
	})
	httpEnc.SetLogger(logger)
}
