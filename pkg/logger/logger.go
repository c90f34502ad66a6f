package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化参数，来自配置文件的 logger 段。
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 为空时仅输出到 stdout
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩滚动后的旧日志
}

var sugar *zap.SugaredLogger

func init() {
	// 默认 logger，保证 Init 之前的调用（如配置加载失败）也有输出
	sugar = newLogger(LogOption{Format: "console", Level: "info"})
}

// Init 按配置重建全局 logger，应在进程启动时调用一次。
func Init(opt LogOption) {
	sugar = newLogger(opt)
}

func newLogger(opt LogOption) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(opt.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var ws zapcore.WriteSyncer
	if opt.LogDir != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, "app.log"),
			MaxSize:    128, // MB
			MaxBackups: 10,
			MaxAge:     7, // 天
			Compress:   opt.Compress,
		})
	} else {
		ws = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(encoder, ws, parseLevel(opt.Level))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Debugf(format string, args ...any) { sugar.Debugf(format, args...) }
func Infof(format string, args ...any)  { sugar.Infof(format, args...) }
func Warnf(format string, args ...any)  { sugar.Warnf(format, args...) }
func Errorf(format string, args ...any) { sugar.Errorf(format, args...) }

// Sync 刷新缓冲日志，退出前调用。
func Sync() {
	_ = sugar.Sync()
}
