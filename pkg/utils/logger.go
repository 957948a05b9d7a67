package utils

import (
	"github.com/sirupsen/logrus"
	"os"
)

var Logger = logrus.New()

func init() {
	// Logger settings
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.JSONFormatter{})
	Logger.SetLevel(logrus.InfoLevel)
}

// LogTrade logs an executed trade.
func LogTrade(tradeId string, market string, price string, quantity int64) {
	Logger.WithFields(logrus.Fields{
		"trade_id": tradeId,
		"market":   market,
		"price":    price,
		"quantity": quantity,
	}).Info("Trade executed")
}

// LogError logs errors
func LogError(err error) {
	Logger.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error("Error occurred")
}
