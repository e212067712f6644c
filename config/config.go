// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --- Các struct con, phản ánh cấu trúc của YAML ---

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
	// TransactionLifetime phải khớp transactionLifetimeLimitSeconds của server (mặc định 60s).
	TransactionLifetime string `mapstructure:"transactionLifetime"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// BlockchainConfig mô tả mạng EVM và smart contract CertificationRegistry.
type BlockchainConfig struct {
	Network           string `mapstructure:"network"`
	RPCURL            string `mapstructure:"rpcURL"`
	ContractAddress   string `mapstructure:"contractAddress"`
	CompanyPrivateKey string `mapstructure:"companyPrivateKey"`
	GasPrice          int64  `mapstructure:"gasPrice"`
	GasLimit          uint64 `mapstructure:"gasLimit"`
	ReceiptTimeout    string `mapstructure:"receiptTimeout"`
}

type WalletConfig struct {
	EncryptionKey string `mapstructure:"encryptionKey"`
}

type SchedulerConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// --- Struct Config chính, bao gồm tất cả các struct con ---

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	S3         S3Config         `mapstructure:"s3"`
	Blockchain BlockchainConfig `mapstructure:"blockchain"`
	Wallet     WalletConfig     `mapstructure:"wallet"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Log        LogConfig        `mapstructure:"log"`
}

var envBindings = map[string]string{
	"server.port":                  "SERVER_PORT",
	"server.allowedOrigins":        "SERVER_ALLOWED_ORIGINS",
	"mongo.uri":                    "MONGO_URI",
	"mongo.dbName":                 "MONGO_DBNAME",
	"mongo.transactionLifetime":    "MONGO_TRANSACTION_LIFETIME",
	"jwt.secret":                   "JWT_SECRET",
	"jwt.expiration":               "JWT_EXPIRATION",
	"s3.bucket":                    "S3_BUCKET",
	"s3.region":                    "S3_REGION",
	"s3.accessKeyID":               "S3_ACCESS_KEY_ID",
	"s3.secretAccessKey":           "S3_SECRET_ACCESS_KEY",
	"s3.cloudFrontDomain":          "S3_CLOUDFRONT_DOMAIN",
	"blockchain.network":           "BLOCKCHAIN_NETWORK",
	"blockchain.rpcURL":            "BLOCKCHAIN_RPC_URL",
	"blockchain.contractAddress":   "CERTIFICATION_CONTRACT_ADDRESS",
	"blockchain.companyPrivateKey": "COMPANY_WALLET_PRIVATE_KEY",
	"blockchain.gasPrice":          "BLOCKCHAIN_GAS_PRICE",
	"blockchain.gasLimit":          "BLOCKCHAIN_GAS_LIMIT",
	"blockchain.receiptTimeout":    "BLOCKCHAIN_RECEIPT_TIMEOUT",
	"wallet.encryptionKey":         "WALLET_ENCRYPTION_KEY",
	"scheduler.timezone":           "SCHEDULER_TIMEZONE",
	"kafka.brokers":                "KAFKA_BROKERS",
	"kafka.topic":                  "KAFKA_TOPIC",
	"log.level":                    "LOG_LEVEL",
	"log.format":                   "LOG_FORMAT",
}

// LoadConfig đọc cấu hình từ file và ghi đè bằng các biến môi trường.
// File .env (nếu có) được nạp vào môi trường trước tiên.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("mongo.dbName", "cattle_certification")
	v.SetDefault("mongo.transactionLifetime", "60s")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("blockchain.network", "amoy")
	v.SetDefault("blockchain.gasPrice", int64(30_000_000_000)) // 30 gwei
	v.SetDefault("blockchain.gasLimit", uint64(300_000))
	v.SetDefault("blockchain.receiptTimeout", "45s")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("kafka.topic", "certification-events")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return
		}
	}

	// Nếu file không tồn tại, Viper sẽ chỉ sử dụng các biến môi trường.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	// Biến môi trường dạng danh sách được phân tách bằng dấu phẩy
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)
	config.Kafka.Brokers = splitList(config.Kafka.Brokers)
	return
}

// Validate kiểm tra các giá trị bắt buộc để chạy server.
func (c Config) Validate() error {
	var missing []string
	if c.Mongo.URI == "" {
		missing = append(missing, "mongo.uri")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "jwt.secret")
	}
	if c.Blockchain.ContractAddress == "" {
		missing = append(missing, "blockchain.contractAddress")
	}
	if c.Blockchain.CompanyPrivateKey == "" {
		missing = append(missing, "blockchain.companyPrivateKey")
	}
	if c.Wallet.EncryptionKey == "" {
		missing = append(missing, "wallet.encryptionKey")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if _, err := c.JWTTTL(); err != nil {
		return err
	}
	wait, err := c.Blockchain.ReceiptWait()
	if err != nil {
		return err
	}
	// Certify chờ receipt bên trong transaction Mongo; server sẽ abort transaction sống quá lifetime.
	lifetime, err := c.Mongo.TransactionLimit()
	if err != nil {
		return err
	}
	if wait >= lifetime {
		return fmt.Errorf("blockchain.receiptTimeout %s must be shorter than mongo.transactionLifetime %s", wait, lifetime)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) JWTTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.JWT.Expiration)
	if err != nil {
		return 0, fmt.Errorf("invalid jwt.expiration %q: %w", c.JWT.Expiration, err)
	}
	return d, nil
}

func (m MongoConfig) TransactionLimit() (time.Duration, error) {
	if m.TransactionLifetime == "" {
		return 60 * time.Second, nil
	}
	d, err := time.ParseDuration(m.TransactionLifetime)
	if err != nil {
		return 0, fmt.Errorf("invalid mongo.transactionLifetime %q: %w", m.TransactionLifetime, err)
	}
	return d, nil
}

func (b BlockchainConfig) ReceiptWait() (time.Duration, error) {
	d, err := time.ParseDuration(b.ReceiptTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid blockchain.receiptTimeout %q: %w", b.ReceiptTimeout, err)
	}
	return d, nil
}

func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
