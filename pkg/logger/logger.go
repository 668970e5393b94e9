package logger

import (
	"go.uber.org/zap"
)

var l = zap.NewNop()

// Init 按运行模式初始化全局 logger（release 用生产配置）
func Init(mode string) error {
	var (
		lg  *zap.Logger
		err error
	)
	if mode == "release" {
		lg, err = zap.NewProduction()
	} else {
		lg, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	l = lg
	return nil
}

func L() *zap.Logger { return l }

func Debug(msg string, fields ...zap.Field) { l.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { l.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { l.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { l.Error(msg, fields...) }

func Sync() { _ = l.Sync() }
