package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("CERTIFICATION_CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("BLOCKCHAIN_NETWORK", "polygon")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "polygon", cfg.Blockchain.Network)
	assert.Equal(t, int64(30_000_000_000), cfg.Blockchain.GasPrice)
	assert.Equal(t, uint64(300_000), cfg.Blockchain.GasLimit)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)

	ttl, err := cfg.JWTTTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  port: \"9090\"\nscheduler:\n  timezone: America/Argentina/Buenos_Aires\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)

	loc, err := cfg.Scheduler.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Argentina/Buenos_Aires", loc.String())
}

func TestValidateReportsMissingValues(t *testing.T) {
	err := Config{JWT: JWTConfig{Expiration: "1h"}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo.uri")
	assert.Contains(t, err.Error(), "wallet.encryptionKey")
}

func validConfig() Config {
	return Config{
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", TransactionLifetime: "60s"},
		JWT:    JWTConfig{Secret: "s3cret", Expiration: "1h"},
		Wallet: WalletConfig{EncryptionKey: "key"},
		Blockchain: BlockchainConfig{
			ContractAddress:   "0x00000000000000000000000000000000000000aa",
			CompanyPrivateKey: "0xabc",
			ReceiptTimeout:    "45s",
		},
	}
}

func TestValidateReceiptTimeoutFitsMongoTransaction(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.Blockchain.ReceiptTimeout = "2m"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo.transactionLifetime")

	// Server đã nâng transactionLifetimeLimitSeconds thì cho phép chờ lâu hơn.
	cfg.Mongo.TransactionLifetime = "5m"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaultsKeepReceiptWaitInsideTransaction(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	wait, err := cfg.Blockchain.ReceiptWait()
	require.NoError(t, err)
	lifetime, err := cfg.Mongo.TransactionLimit()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, lifetime)
	assert.Less(t, wait, lifetime)
}
