// Package logx adapts the teacher's LogHandler contract (FeatureEvent
// for protocol-level events tied to a charge point id, Debug/Warn/Error
// for everything else) onto logrus, replacing the teacher's
// hand-rolled channel-based internal.Logger with a library the rest
// of the pack already reaches for (adolfosan-electromobility-centralsystem).
package logx

import (
	"github.com/sirupsen/logrus"
)

// Handler is the contract the dispatcher, transport and transaction
// manager log through. It mirrors internal.LogHandler so existing
// call sites keep their shape.
type Handler interface {
	FeatureEvent(feature, id, text string)
	Debug(text string)
	Warn(text string)
	Error(text string, err error)
}

type logrusHandler struct {
	log *logrus.Logger
}

// New builds a Handler backed by a logrus.Logger configured with a
// text formatter and full timestamps, matching the teacher's
// timestamped line-oriented log output.
func New() Handler {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusHandler{log: l}
}

func (h *logrusHandler) FeatureEvent(feature, id, text string) {
	h.log.WithFields(logrus.Fields{"feature": feature, "chargePointId": id}).Info(text)
}

func (h *logrusHandler) Debug(text string) { h.log.Debug(text) }

func (h *logrusHandler) Warn(text string) { h.log.Warn(text) }

func (h *logrusHandler) Error(text string, err error) {
	h.log.WithError(err).Error(text)
}
