package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New construye el logger del servicio: JSON a stdout, nivel por LOG_LEVEL.
// Devuelve un *logrus.Entry con el campo "service" ya seteado, para que
// todos los logs salgan etiquetados sin repetir el campo en cada llamada.
func New(service string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	l.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	service = strings.TrimSpace(service)
	if service == "" {
		service = "take-a-paw"
	}
	return l.WithField("service", service)
}

func parseLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
