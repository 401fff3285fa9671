package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化选项，由 config.LogConfig 转换而来
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 日志输出目录，为空则只输出到 stdout
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩旧日志文件
}

var sugar *zap.SugaredLogger

func init() {
	// 未显式 Init 时提供默认 console logger，保证库内日志调用安全
	Init(LogOption{Format: "console", Level: "info"})
}

// Init 初始化全局日志实例（进程启动时调用一次）
func Init(opt LogOption) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(opt.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opt.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opt.LogDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, "indexer.log"),
			MaxSize:    256, // 单文件上限（MB）
			MaxBackups: 10,
			MaxAge:     14, // 天
			Compress:   opt.Compress,
		}
		syncers = append(syncers, zapcore.AddSync(rotator))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)
	sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func Debugf(format string, args ...interface{}) { sugar.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { sugar.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { sugar.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { sugar.Errorf(format, args...) }

// Sync 刷新缓冲日志，进程退出前调用
func Sync() {
	_ = sugar.Sync()
}
