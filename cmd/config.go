package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"flog.dev/pkg/flog/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "flog"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName      = "output"
	excludeFlagName     = "exclude"
	verboseFlagName     = "verbose"
	thresholdFlagName   = "threshold"
	runParallelFlagName = "parallel"
	saveFlagName        = "save"
	intoFlagName        = "into"

	thresholdConfigKey   = "report.threshold"
	runParallelConfigKey = "run.parallel"
	excludeConfigKey     = "paths.exclude"

	defaultReportsDir  = ".flog-reports"
	defaultThreshold   = domain.DefaultThreshold
	defaultRunParallel = 1

	envPrefix = "FLOG"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".flog.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// configReadErr holds a config file problem found at startup. It is logged
// once the logger is configured.
var configReadErr error

func init() {
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	for key, value := range map[string]any{
		configVersionKey:     currentConfigVersion,
		outputFlagName:       defaultReportsDir,
		thresholdConfigKey:   defaultThreshold,
		runParallelConfigKey: defaultRunParallel,
		excludeConfigKey:     []string{},
		logFilenameKey:       defaultLogFilename,
		logLevelKey:          defaultLogLevel,
		logVerboseKey:        defaultLogVerbose,
		logMaxSizeKey:        defaultLogMaxSize,
		logMaxBackupsKey:     defaultLogMaxBackups,
		logMaxAgeKey:         defaultLogMaxAge,
		logCompressKey:       defaultLogCompress,
	} {
		viper.SetDefault(key, value)
	}

	configReadErr = readConfig()
}

// readConfig loads flog.yaml when present. A missing file is not an error.
func readConfig() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("read %s: %w", configFileName, err)
}

// parseSlogLevel accepts slog level names in any case, "warning", or a
// numeric level such as -4.
func parseSlogLevel(value string, fallback slog.Level) slog.Level {
	value = strings.TrimSpace(value)

	switch {
	case value == "":
		return fallback
	case strings.EqualFold(value, "warning"):
		return slog.LevelWarn
	}

	if n, err := strconv.Atoi(value); err == nil {
		return slog.Level(n)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}

	return level
}

// configureLogger sends slog output to a rotating file. verbose forces debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	level := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		level = slog.LevelDebug
	}

	rotation := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(rotation, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})))

	if configReadErr != nil {
		slog.Warn("ignoring config file", "error", configReadErr)
	}
}
