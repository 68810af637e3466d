package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Storage  StorageConfig
	Session  SessionConfig
	Chat     ChatConfig
	Media    MediaConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	// AuthRateLimit 认证接口每分钟允许的请求数，0 表示不限制
	AuthRateLimit int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig AI配置
type AIConfig struct {
	Provider string
	OpenAI   OpenAIConfig
	DeepSeek DeepSeekConfig
	Qwen     QwenConfig
	Image    ImageConfig
	Speech   SpeechConfig
}

// OpenAIConfig OpenAI配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// DeepSeekConfig DeepSeek配置
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// QwenConfig 通义千问（兼容模式）配置
type QwenConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// ImageConfig 图片生成配置
type ImageConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
}

// SpeechConfig 语音转写与合成配置
type SpeechConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Voice   string
}

// StorageConfig 存储配置
type StorageConfig struct {
	// Local 本地键值存储: memory, redis, sqlite
	Local string
	// Capacity 本地存储容量（字节），0 表示不限制
	// CLI 为整个设备的容量，服务端为每个用户的容量
	Capacity int64
	// SQLitePath sqlite 文件路径
	SQLitePath string
	// KeyPrefix redis 键前缀
	KeyPrefix string
	// Remote 是否启用远程（PostgreSQL）存储
	Remote bool
	// RemoteDomains 使用远程存储的数据域
	RemoteDomains []string
}

// SessionConfig 会话配置
type SessionConfig struct {
	JWTSecret string
	TTL       time.Duration
	Issuer    string
	// TokenFile CLI 保存会话令牌的文件
	TokenFile string
}

// ChatConfig 对话配置
type ChatConfig struct {
	MaxMessageLength   int
	MaxHistory         int
	MaxChunkChars      int
	MaxDailyMessages   int
	MaxGroupResponders int
	Timezone           string
	Temperature        float32
	MaxTokens          int
}

// MediaConfig 媒体文件存储配置
type MediaConfig struct {
	Type      string
	BasePath  string
	URLPrefix string
	MinIO     MinIOConfig
}

// MinIOConfig MinIO 配置
type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	URLPrefix  string
}

var globalConfig *Config

// Load 加载配置
// path 为空时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("CHATHY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// Validate 校验配置
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Local {
	case "memory", "redis", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.local must be memory, redis or sqlite, got %q", c.Storage.Local))
	}
	if c.Storage.Local == "sqlite" && c.Storage.SQLitePath == "" {
		errs = append(errs, errors.New("storage.sqlitePath is required for sqlite storage"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Chat.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("chat.maxMessageLength must be positive"))
	}
	if c.Chat.MaxChunkChars <= 0 {
		errs = append(errs, errors.New("chat.maxChunkChars must be positive"))
	}
	if _, err := c.Chat.Location(); err != nil {
		errs = append(errs, err)
	}
	switch c.Media.Type {
	case "local", "minio":
	default:
		errs = append(errs, fmt.Errorf("media.type must be local or minio, got %q", c.Media.Type))
	}

	return errors.Join(errs...)
}

// Location 返回计算“今天”所用的时区
func (c *ChatConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid chat.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsRemoteDomain 判断数据域是否使用远程存储
func (c *StorageConfig) IsRemoteDomain(domain string) bool {
	if !c.Remote {
		return false
	}
	for _, d := range c.RemoteDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "chathy")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 120)
	v.SetDefault("server.authRateLimit", 20)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "chathy")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.deepseek.baseUrl", "https://api.deepseek.com/v1")
	v.SetDefault("ai.deepseek.model", "deepseek-chat")
	v.SetDefault("ai.qwen.baseUrl", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("ai.qwen.model", "qwen-plus")
	v.SetDefault("ai.image.enabled", false)
	v.SetDefault("ai.image.model", "dall-e-3")
	v.SetDefault("ai.speech.enabled", false)
	v.SetDefault("ai.speech.voice", "nova")

	// Storage
	v.SetDefault("storage.local", "memory")
	v.SetDefault("storage.capacity", 5*1024*1024)
	v.SetDefault("storage.sqlitePath", "./data/chathy.db")
	v.SetDefault("storage.keyPrefix", "chathy:")
	v.SetDefault("storage.remote", false)
	v.SetDefault("storage.remoteDomains", []string{"profile", "agents", "groups", "messages", "interaction-counters"})

	// Session
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.issuer", "chathy")
	v.SetDefault("session.tokenFile", "./data/session.json")

	// Chat
	v.SetDefault("chat.maxMessageLength", 2000)
	v.SetDefault("chat.maxHistory", 100)
	v.SetDefault("chat.maxChunkChars", 800)
	v.SetDefault("chat.maxDailyMessages", 0)
	v.SetDefault("chat.maxGroupResponders", 3)
	v.SetDefault("chat.timezone", "Local")
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("chat.maxTokens", 500)

	// Media
	v.SetDefault("media.type", "local")
	v.SetDefault("media.basePath", "./data/files")
	v.SetDefault("media.urlPrefix", "/files")
}
