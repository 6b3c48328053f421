package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port            string        `mapstructure:"port"`
		Env             string        `mapstructure:"env"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	} `mapstructure:"app"`
	Backend struct {
		BaseURL string        `mapstructure:"baseUrl"`
		APIKey  string        `mapstructure:"apiKey"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"backend"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// LoadConfig загружает конфигурацию из файла или переменных окружения.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// .env нужен только для локального запуска
		_ = godotenv.Load(path)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.readTimeout", 10*time.Second)
	viper.SetDefault("app.writeTimeout", 10*time.Second)
	viper.SetDefault("app.shutdownTimeout", 15*time.Second)
	viper.SetDefault("backend.timeout", 10*time.Second)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.ttl", 15*time.Minute)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("logging.level", "INFO")

	viper.AutomaticEnv() // Чтение переменных окружения

	if err := viper.ReadInConfig(); err != nil {
		// Файл конфигурации необязателен: значения по умолчанию
		// и переменные окружения покрывают запуск без него
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
