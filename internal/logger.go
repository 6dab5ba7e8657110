package internal

import (
	"time"

	"go.uber.org/zap"

	"vismapay/services"
)

// LogMessage is the persisted form of one log line.
type LogMessage struct {
	Time    time.Time `json:"time" bson:"time"`
	Level   string    `json:"level" bson:"level"`
	Service string    `json:"service" bson:"service"`
	Text    string    `json:"text" bson:"text"`
	Error   string    `json:"error,omitempty" bson:"error,omitempty"`
}

func (m *LogMessage) DataType() string {
	return "log"
}

// Logger implements services.LogHandler on top of zap. When a database is
// given, info and worse is also persisted through it; persistence failures
// are swallowed, logging must never take the service down.
type Logger struct {
	service  string
	isDebug  bool
	log      *zap.Logger
	database services.Database
}

func NewLogger(service string, isDebug bool, database services.Database) *Logger {
	var zl *zap.Logger
	var err error
	if isDebug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		zl = zap.NewNop()
	}
	return &Logger{
		service:  service,
		isDebug:  isDebug,
		log:      zl.With(zap.String("service", service)),
		database: database,
	}
}

func (l *Logger) Debug(message string) {
	if !l.isDebug {
		return
	}
	l.log.Debug(message)
}

func (l *Logger) Info(message string) {
	l.log.Info(message)
	l.persist("info", message, "")
}

func (l *Logger) Warn(message string) {
	l.log.Warn(message)
	l.persist("warning", message, "")
}

func (l *Logger) Error(message string, err error) {
	l.log.Error(message, zap.Error(err))
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	l.persist("error", message, errText)
}

func (l *Logger) persist(level, text, errText string) {
	if l.database == nil {
		return
	}
	_ = l.database.WriteLogMessage(&LogMessage{
		Time:    time.Now(),
		Level:   level,
		Service: l.service,
		Text:    text,
		Error:   errText,
	})
}
