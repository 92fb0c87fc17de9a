package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hyunwoogil/restaurant-order-service/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Port          string `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr string `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr string `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons     int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`

	AllowOrigins string `mapstructure:"ALLOW_ORIGINS"`

	// Firebase service-account file for the push capability. Empty disables
	// push delivery (records end up failed with a clear reason).
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Redis is optional: menu cache and global rate limiting degrade
	// gracefully without it.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	MenuCacheTTL  time.Duration `mapstructure:"MENU_CACHE_TTL"`

	// Kafka is optional: order lifecycle events are best-effort and the
	// publisher is a no-op without brokers.
	KafkaBrokers        string        `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic     string        `mapstructure:"KAFKA_ORDER_TOPIC"`
	KafkaPartition      uint32        `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaOrderRetention time.Duration `mapstructure:"KAFKA_ORDER_RETENTION"`

	OrderRate  int `mapstructure:"ORDER_RATE"` // 0 = unlimited
	OrderBurst int `mapstructure:"ORDER_BURST"`

	DispatchBatchLimit int `mapstructure:"DISPATCH_BATCH_LIMIT" validate:"min=1"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("MENU_CACHE_TTL", "60s")
	viper.SetDefault("KAFKA_ORDER_TOPIC", "order-events")
	viper.SetDefault("KAFKA_PARTITION", "4")
	viper.SetDefault("KAFKA_ORDER_RETENTION", "24h")
	viper.SetDefault("ORDER_RATE", "0")
	viper.SetDefault("ORDER_BURST", "0")
	viper.SetDefault("DISPATCH_BATCH_LIMIT", "50")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./internal/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
