package storage

import (
	"fmt"
	"strings"
	"time"
)

const quotesPrefix = "quotes"

// QuoteObjectPath places an exported quote under a per-day prefix with a unique id
// so that two exports with the same file name never overwrite each other.
// The result looks like quotes/2025/04/02/<id>/<fileName>.
func QuoteObjectPath(at time.Time, id, fileName string) (string, error) {
	id, err := validateSegment("id", id)
	if err != nil {
		return "", err
	}
	fileName, err = validateSegment("fileName", fileName)
	if err != nil {
		return "", err
	}
	at = at.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s/%s", quotesPrefix, at.Year(), int(at.Month()), at.Day(), id, fileName), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", fmt.Errorf("storage: %s is required", name)
	case strings.ContainsAny(value, "/\\"):
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	case strings.Contains(value, ".."):
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}
