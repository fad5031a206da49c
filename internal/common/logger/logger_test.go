package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/safarinest/hotel-booking-backend/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit_ConsoleFormat(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
		Caller: true,
	}

	err := Init(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, log)
	assert.NotNil(t, sugar)
}

func TestInit_JSONFormat(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
		Caller: false,
	}

	err := Init(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, log)
	assert.NotNil(t, sugar)
}

func TestInit_FileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	cfg := &config.LoggerConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "file",
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   false,
		Caller:     true,
	}

	err := Init(cfg)
	assert.NoError(t, err)

	Info("test message")
	_ = Sync()

	_, err = os.Stat(logFile)
	assert.NoError(t, err)
}

func TestInit_AllLogLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown"}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := &config.LoggerConfig{
				Level:  level,
				Format: "console",
				Output: "stdout",
			}
			err := Init(cfg)
			assert.NoError(t, err)
		})
	}
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zapcore.Level
	}{
		{"debug level", "debug", zapcore.DebugLevel},
		{"info level", "info", zapcore.InfoLevel},
		{"warn level", "warn", zapcore.WarnLevel},
		{"error level", "error", zapcore.ErrorLevel},
		{"default level", "invalid", zapcore.InfoLevel},
		{"empty level", "", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getLogLevel(tt.level)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCustomTimeEncoder(t *testing.T) {
	testTime := time.Date(2026, 1, 11, 15, 30, 45, 123000000, time.Local)

	arrEnc := &testArrayEncoder{}

	customTimeEncoder(testTime, arrEnc)

	expected := "2026-01-11 15:30:45.123"
	assert.Equal(t, expected, arrEnc.lastString)
}

type testArrayEncoder struct {
	lastString string
}

func (e *testArrayEncoder) AppendString(s string) {
	e.lastString = s
}

func (e *testArrayEncoder) AppendBool(bool)              {}
func (e *testArrayEncoder) AppendByteString([]byte)      {}
func (e *testArrayEncoder) AppendComplex128(complex128)  {}
func (e *testArrayEncoder) AppendComplex64(complex64)    {}
func (e *testArrayEncoder) AppendDuration(time.Duration) {}
func (e *testArrayEncoder) AppendFloat32(float32)        {}
func (e *testArrayEncoder) AppendFloat64(float64)        {}
func (e *testArrayEncoder) AppendInt(int)                {}
func (e *testArrayEncoder) AppendInt16(int16)            {}
func (e *testArrayEncoder) AppendInt32(int32)            {}
func (e *testArrayEncoder) AppendInt64(int64)            {}
func (e *testArrayEncoder) AppendInt8(int8)              {}
func (e *testArrayEncoder) AppendTime(time.Time)         {}
func (e *testArrayEncoder) AppendUint(uint)              {}
func (e *testArrayEncoder) AppendUint16(uint16)          {}
func (e *testArrayEncoder) AppendUint32(uint32)          {}
func (e *testArrayEncoder) AppendUint64(uint64)          {}
func (e *testArrayEncoder) AppendUint8(uint8)            {}
func (e *testArrayEncoder) AppendUintptr(uintptr)        {}
func (e *testArrayEncoder) AppendReflected(interface{}) error {
	return nil
}
func (e *testArrayEncoder) AppendArray(zapcore.ArrayMarshaler) error {
	return nil
}
func (e *testArrayEncoder) AppendObject(zapcore.ObjectMarshaler) error {
	return nil
}

func TestGetLogger_LazyInit(t *testing.T) {
	log = nil
	sugar = nil

	logger := GetLogger()
	assert.NotNil(t, logger)

	logger2 := GetLogger()
	assert.Equal(t, logger, logger2)
}

func TestGetSugar_LazyInit(t *testing.T) {
	log = nil
	sugar = nil

	sugarLogger := GetSugar()
	assert.NotNil(t, sugarLogger)

	sugarLogger2 := GetSugar()
	assert.Equal(t, sugarLogger, sugarLogger2)
}

func TestSync_WithNilLogger(t *testing.T) {
	log = nil
	err := Sync()
	assert.NoError(t, err)
}

func TestSync_WithInitializedLogger(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
	err := Init(cfg)
	require.NoError(t, err)

	// Sync may fail on stdout; we only verify it does not panic.
	_ = Sync()
}

func TestLogFunctions(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	}
	err := Init(cfg)
	require.NoError(t, err)

	t.Run("Debug", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Debug("debug message", String("key", "value"))
		})
	})

	t.Run("Info", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Info("info message", Int("count", 10))
		})
	})

	t.Run("Warn", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Warn("warn message", Bool("flag", true))
		})
	})

	t.Run("Error", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Error("error message", Err(nil))
		})
	})
}

func TestFormattedLogFunctions(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	}
	err := Init(cfg)
	require.NoError(t, err)

	t.Run("Debugf", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Debugf("debug %s %d", "test", 123)
		})
	})

	t.Run("Infof", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Infof("info %s", "test")
		})
	})

	t.Run("Warnf", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Warnf("warn %v", map[string]int{"a": 1})
		})
	})

	t.Run("Errorf", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Errorf("error %s", "test")
		})
	})
}

func TestWith(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
	err := Init(cfg)
	require.NoError(t, err)

	childLogger := With(String("service", "test"))
	assert.NotNil(t, childLogger)
	assert.IsType(t, &zap.Logger{}, childLogger)
}

func TestWithFields(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
	err := Init(cfg)
	require.NoError(t, err)

	childSugar := WithFields("key1", "value1", "key2", 123)
	assert.NotNil(t, childSugar)
	assert.IsType(t, &zap.SugaredLogger{}, childSugar)
}

func TestNamed(t *testing.T) {
	cfg := &config.LoggerConfig{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
	err := Init(cfg)
	require.NoError(t, err)

	namedLogger := Named("test-service")
	assert.NotNil(t, namedLogger)
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field zap.Field
	}{
		{"RequestID", RequestID("req-123")},
		{"UserID", UserID(12345)},
		{"BookingID", BookingID(999)},
		{"PaymentID", PaymentID(100)},
		{"RoomID", RoomID(42)},
		{"CheckoutRequestID", CheckoutRequestID("ws_CO_260828001")},
		{"Module", Module("payment")},
		{"Action", Action("create")},
		{"Latency", Latency(100 * time.Millisecond)},
		{"StatusCode", StatusCode(200)},
		{"Method", Method("POST")},
		{"Path", Path("/api/v1/bookings")},
		{"IP", IP("192.168.1.1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.field.Key)
		})
	}
}

func TestFieldConstructorValues(t *testing.T) {
	t.Run("RequestID", func(t *testing.T) {
		field := RequestID("test-id")
		assert.Equal(t, "request_id", field.Key)
		assert.Equal(t, "test-id", field.String)
	})

	t.Run("UserID", func(t *testing.T) {
		field := UserID(12345)
		assert.Equal(t, "user_id", field.Key)
		assert.Equal(t, int64(12345), field.Integer)
	})

	t.Run("BookingID", func(t *testing.T) {
		field := BookingID(999)
		assert.Equal(t, "booking_id", field.Key)
		assert.Equal(t, int64(999), field.Integer)
	})

	t.Run("PaymentID", func(t *testing.T) {
		field := PaymentID(100)
		assert.Equal(t, "payment_id", field.Key)
		assert.Equal(t, int64(100), field.Integer)
	})

	t.Run("RoomID", func(t *testing.T) {
		field := RoomID(42)
		assert.Equal(t, "room_id", field.Key)
		assert.Equal(t, int64(42), field.Integer)
	})

	t.Run("CheckoutRequestID", func(t *testing.T) {
		field := CheckoutRequestID("ws_CO_123")
		assert.Equal(t, "checkout_request_id", field.Key)
		assert.Equal(t, "ws_CO_123", field.String)
	})

	t.Run("Module", func(t *testing.T) {
		field := Module("auth")
		assert.Equal(t, "module", field.Key)
		assert.Equal(t, "auth", field.String)
	})

	t.Run("Action", func(t *testing.T) {
		field := Action("login")
		assert.Equal(t, "action", field.Key)
		assert.Equal(t, "login", field.String)
	})

	t.Run("StatusCode", func(t *testing.T) {
		field := StatusCode(404)
		assert.Equal(t, "status_code", field.Key)
		assert.Equal(t, int64(404), field.Integer)
	})

	t.Run("Method", func(t *testing.T) {
		field := Method("GET")
		assert.Equal(t, "method", field.Key)
		assert.Equal(t, "GET", field.String)
	})

	t.Run("Path", func(t *testing.T) {
		field := Path("/api/health")
		assert.Equal(t, "path", field.Key)
		assert.Equal(t, "/api/health", field.String)
	})

	t.Run("IP", func(t *testing.T) {
		field := IP("10.0.0.1")
		assert.Equal(t, "ip", field.Key)
		assert.Equal(t, "10.0.0.1", field.String)
	})
}

func TestZapFieldAliases(t *testing.T) {
	assert.Equal(t, zap.String("k", "v"), String("k", "v"))
	assert.Equal(t, zap.Int("k", 1), Int("k", 1))
	assert.Equal(t, zap.Int64("k", 100), Int64("k", 100))
	assert.Equal(t, zap.Uint64("k", 200), Uint64("k", 200))
	assert.Equal(t, zap.Float64("k", 1.5), Float64("k", 1.5))
	assert.Equal(t, zap.Bool("k", true), Bool("k", true))
	assert.Equal(t, zap.Duration("k", time.Second), Duration("k", time.Second))
}

func TestJSONLogFormat(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "json.log")

	cfg := &config.LoggerConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
		Caller:   false,
	}

	err := Init(cfg)
	require.NoError(t, err)

	Info("test json log", String("key", "value"), Int("count", 42))
	_ = Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var logEntry map[string]interface{}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.NotEmpty(t, lines)

	err = json.Unmarshal([]byte(lines[0]), &logEntry)
	assert.NoError(t, err)

	assert.Equal(t, "test json log", logEntry["msg"])
	assert.Equal(t, "value", logEntry["key"])
	assert.Equal(t, float64(42), logEntry["count"])
	assert.Equal(t, "info", logEntry["level"])
	assert.Contains(t, logEntry, "time")
}

func TestLogLevelFiltering(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "level.log")

	cfg := &config.LoggerConfig{
		Level:    "warn",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	err := Init(cfg)
	require.NoError(t, err)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	_ = Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	logContent := string(content)

	assert.NotContains(t, logContent, "debug message")
	assert.NotContains(t, logContent, "info message")

	assert.Contains(t, logContent, "warn message")
	assert.Contains(t, logContent, "error message")
}
