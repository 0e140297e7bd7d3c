package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

type envReader struct {
	values map[string]string
}

func newEnvReader(options loaderOptions) (envReader, error) {
	values, err := mergeEnvironment(options)
	if err != nil {
		return envReader{}, err
	}
	return envReader{values: values}, nil
}

// EnvironmentValues returns the effective key/value environment map after applying the same precedence
// rules as Load (dotenv < OS env < explicit env map). Callers use it to build dependencies such as the
// secret fetcher before invoking Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	return mergeEnvironment(newLoaderOptions(opts))
}

func mergeEnvironment(options loaderOptions) (map[string]string, error) {
	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(dotEnv))
	for key, value := range dotEnv {
		values[key] = value
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				continue
			}
			values[key] = value
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

func (r envReader) raw(key string) string {
	return strings.TrimSpace(r.values[key])
}

func (r envReader) str(key, fallback string) string {
	if value := r.raw(key); value != "" {
		return value
	}
	return fallback
}

func (r envReader) duration(key string, fallback time.Duration) time.Duration {
	if value := r.raw(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (r envReader) int64(key string, fallback int64) int64 {
	if value := r.raw(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseRates reads "EUR=0.92,GBP=0.79". Codes are upper-cased; entries that do not parse as
// positive numbers are reported as invalid fields.
func parseRates(raw string) (map[string]float64, []string) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	rates := make(map[string]float64)
	var invalid []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		code, value, ok := strings.Cut(entry, "=")
		code = strings.ToUpper(strings.TrimSpace(code))
		if !ok || code == "" {
			invalid = append(invalid, "Pricing.CurrencyRates")
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			invalid = append(invalid, fmt.Sprintf("Pricing.CurrencyRates[%s]", code))
			continue
		}
		rates[code] = rate
	}
	sort.Strings(invalid)
	return rates, invalid
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}
