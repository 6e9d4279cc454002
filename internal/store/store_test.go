package store

import "github.com/lotnotify/lotbridge/internal/config"

func configStore(driver, dsn string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, DSN: dsn}
}
