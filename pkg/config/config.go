// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/KostasCherv/protocol-analysis/pkg/logger"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger logger.Config `mapstructure:"logger"`
	// 风控阈值配置
	Risk RiskConfig `mapstructure:"risk"`
	// 利率模型参数
	RateModel RateModelConfig `mapstructure:"rate_model"`
	// 收益策略配置
	Strategy StrategyConfig `mapstructure:"strategy"`
	// 模拟器配置
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置，DSN 为空时服务运行在纯内存模式
type DatabaseConfig struct {
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// KafkaConfig Kafka 配置，brokers 为空时事件只写日志
type KafkaConfig struct {
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// 事件主题
	Topic string `mapstructure:"topic"`
}

// RiskConfig 风控阈值
type RiskConfig struct {
	// 开户健康因子下限
	OpenThreshold float64 `mapstructure:"open_threshold"`
	// 清算阈值（抵押品折扣因子）
	LiquidationThreshold float64 `mapstructure:"liquidation_threshold"`
	// 清算罚金率
	LiquidationPenalty float64 `mapstructure:"liquidation_penalty"`
}

// RateModelConfig 双拐点利率曲线参数
type RateModelConfig struct {
	BaseRate  float64 `mapstructure:"base_rate"`
	Kink1     float64 `mapstructure:"kink1"`
	Kink2     float64 `mapstructure:"kink2"`
	Slope1    float64 `mapstructure:"slope1"`
	Slope2    float64 `mapstructure:"slope2"`
	Slope3    float64 `mapstructure:"slope3"`
	SpreadFee float64 `mapstructure:"spread_fee"`
}

// StrategyConfig 收益策略配置
type StrategyConfig struct {
	Name string  `mapstructure:"name"`
	APY  float64 `mapstructure:"apy"`
}

// SimulatorConfig 模拟器配置
type SimulatorConfig struct {
	// 是否预置演示世界（池子与示例账户）
	SeedDemoWorld bool `mapstructure:"seed_demo_world"`
}

// Load 从 TOML 文件加载配置，文件缺失时使用默认值，支持 APP_ 环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	_ = v.ReadInConfig()

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Risk.OpenThreshold <= 0 || c.Risk.LiquidationThreshold <= 0 {
		return fmt.Errorf("risk thresholds must be positive")
	}
	if c.RateModel.Kink1 <= 0 || c.RateModel.Kink2 <= c.RateModel.Kink1 || c.RateModel.Kink2 >= 1 {
		return fmt.Errorf("rate model kinks must satisfy 0 < kink1 < kink2 < 1")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "creditsim")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("kafka.topic", "credit.events")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/creditsim.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("risk.open_threshold", 1.2)
	v.SetDefault("risk.liquidation_threshold", 0.95)
	v.SetDefault("risk.liquidation_penalty", 0.05)

	v.SetDefault("rate_model.base_rate", 0.02)
	v.SetDefault("rate_model.kink1", 0.60)
	v.SetDefault("rate_model.kink2", 0.85)
	v.SetDefault("rate_model.slope1", 0.08)
	v.SetDefault("rate_model.slope2", 0.10)
	v.SetDefault("rate_model.slope3", 0.30)
	v.SetDefault("rate_model.spread_fee", 0.05)

	v.SetDefault("strategy.name", "yearn-usdc-vault")
	v.SetDefault("strategy.apy", 0.08)

	v.SetDefault("simulator.seed_demo_world", true)
}
