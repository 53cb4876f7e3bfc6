package utils

import (
	log "github.com/sirupsen/logrus"
)

// InitLogger sets the default logger shape before configuration is
// loaded; LoadConfig tightens the level afterwards.
func InitLogger() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(log.InfoLevel)
}
