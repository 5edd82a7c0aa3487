package config

import "time"

type RedisConfig struct {
	Url      string `mapstructure:"url" json:"url"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	PassWord string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
}

// DatabaseConfig 关系型数据库配置，driver 支持 postgres / mysql
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" json:"driver"`
	Host         string `mapstructure:"host" json:"host"`
	Port         int    `mapstructure:"port" json:"port"`
	User         string `mapstructure:"user" json:"user"`
	Password     string `mapstructure:"password" json:"password"`
	DbName       string `mapstructure:"dbname" json:"dbname"`
	SSLMode      string `mapstructure:"sslmode" json:"sslmode"`
	LogLevel     string `mapstructure:"logLevel" json:"logLevel"`
	MaxOpenConns int    `mapstructure:"maxOpenConns" json:"maxOpenConns"`
	MaxIdleConns int    `mapstructure:"maxIdleConns" json:"maxIdleConns"`
}

type MongoConfig struct {
	Link       string        `mapstructure:"link" json:"link"`
	Database   string        `mapstructure:"database" json:"database"`
	Collection string        `mapstructure:"collection" json:"collection"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout"`
}
