package config

import (
	"errors"
	"fmt"

	kcfg "svgjsx/source/kafka"
)

// LoadKafkaConfig loads the Kafka source config and rejects one that could
// never join a consumer group.
func LoadKafkaConfig(path string) (kcfg.Config, error) {
	c, err := kcfg.LoadConfig(path)
	if err != nil {
		return c, fmt.Errorf("kafka config %s: %w", path, err)
	}
	var errs []error
	if len(c.Brokers) == 0 {
		errs = append(errs, errors.New("brokers is empty"))
	}
	if len(c.Topics) == 0 {
		errs = append(errs, errors.New("topics is empty"))
	}
	if c.GroupID == "" {
		errs = append(errs, errors.New("group_id is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return c, fmt.Errorf("kafka config %s: %w", path, err)
	}
	return c, nil
}
