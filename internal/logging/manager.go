package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// LoggerManager раздаёт логгеры компонентов и хранит для них переопределения уровня
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	levels  map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		levels:  make(map[string]LogLevel),
	}
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	opts := currentOptions()
	if level, ok := lm.levels[component]; ok {
		opts.Level = level
	}
	logger, err := NewLoggerWithOptions(component, opts)
	if err != nil {
		return nil, fmt.Errorf("logger %s: %w", component, err)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер, при ошибке файла пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	opts := currentOptions()
	opts.Dir = ""
	fallback, _ := NewLoggerWithOptions(component, opts)
	fallback.zl.Warn().Err(err).Msg("file logging disabled")
	return fallback
}

// SetComponentLevel задаёт уровень компонента. Уже выданный логгер не меняется,
// поэтому уровни задаются при старте до первых GetLogger.
func (lm *LoggerManager) SetComponentLevel(component string, level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.levels[component] = level
}

// ApplyLevels разбирает карту component → level из конфигурации
func (lm *LoggerManager) ApplyLevels(levels map[string]string) error {
	var errs []error
	for component, name := range levels {
		level, err := ParseLevel(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("component %s: %w", component, err))
			continue
		}
		lm.SetComponentLevel(component, level)
	}
	return errors.Join(errs...)
}

// Components возвращает имена выданных логгеров по алфавиту
func (lm *LoggerManager) Components() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	out := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		out = append(out, component)
	}
	sort.Strings(out)
	return out
}

// CloseAll закрывает файлы логгеров и забывает их, переопределения уровней сохраняются
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetShipLogger() *Logger     { return GetComponentLogger("ship") }
func GetFleetLogger() *Logger    { return GetComponentLogger("fleet") }
func GetStorageLogger() *Logger  { return GetComponentLogger("storage") }
func GetEventBusLogger() *Logger { return GetComponentLogger("eventbus") }
func GetSyncLogger() *Logger     { return GetComponentLogger("sync") }
