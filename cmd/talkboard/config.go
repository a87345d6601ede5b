package main

import "time"

type Config struct {
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	ModerationChar       string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StoreBackend         string        `env:"STORE_BACKEND,default=disk"`
	DataDir              string        `env:"DATA_DIR,default=./data"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	AuthSecret           string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
}
