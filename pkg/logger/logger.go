package logger

import (
	"os"

	"Asclepius/internal/models"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with the preset fields every service log line carries.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus instance. JSON output keeps the log
// stream machine-parseable for collection.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// New creates a Logger preset with the service name.
func New(serviceName string) *Logger {
	return &Logger{
		entry: logrus.WithField("service_name", serviceName),
	}
}

// WithTrace returns a derived Logger carrying the per-turn trace id.
func (l *Logger) WithTrace(traceID string) *Logger {
	return &Logger{entry: l.entry.WithField("trace_id", traceID)}
}

// WithConversation returns a derived Logger carrying conversation scope.
func (l *Logger) WithConversation(conversationID, patientID string) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"patient_id":      patientID,
	})}
}

// WithRequest attaches HTTP request context.
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return &Logger{entry: l.entry.WithField("request_info", req)}
}

// WithError attaches structured error information.
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return &Logger{entry: l.entry.WithField("error", err)}
}

// WithPayload attaches arbitrary structured business data.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

func (l *Logger) Debug(message string) { l.entry.Debug(message) }
func (l *Logger) Info(message string)  { l.entry.Info(message) }
func (l *Logger) Warn(message string)  { l.entry.Warn(message) }
func (l *Logger) Error(message string) { l.entry.Error(message) }
func (l *Logger) Fatal(message string) { l.entry.Fatal(message) }
