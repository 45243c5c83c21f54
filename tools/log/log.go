// Package log 对 logrus 的薄封装，所有包通过它输出日志
package log

import (
	"github.com/sirupsen/logrus"
)

type (
	Level         = logrus.Level
	Fields        = logrus.Fields
	Entry         = logrus.Entry
	TextFormatter = logrus.TextFormatter
	JSONFormatter = logrus.JSONFormatter
)

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

var (
	SetFormatter   = logrus.SetFormatter
	SetLevel       = logrus.SetLevel
	GetLevel       = logrus.GetLevel
	SetOutput      = logrus.SetOutput
	ParseLevel     = logrus.ParseLevel
	WithField      = logrus.WithField
	WithFields     = logrus.WithFields
	WithError      = logrus.WithError
	StandardLogger = logrus.StandardLogger

	Debug  = logrus.Debug
	Debugf = logrus.Debugf
	Info   = logrus.Info
	Infof  = logrus.Infof
	Warn   = logrus.Warn
	Warnf  = logrus.Warnf
	Error  = logrus.Error
	Errorf = logrus.Errorf
	Fatal  = logrus.Fatal
)
