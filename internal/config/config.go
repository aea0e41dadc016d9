// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Facts    FactsConfig
	Report   ReportConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	LogLevel  string
	LogFormat string
	OutputDir string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

// StorageConfig describes the S3-compatible bucket used for fact files and
// archived report artefacts.
type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	FactsPrefix   string
	ReportsPrefix string
}

type DriveConfig struct {
	CredentialsJSON string
	CredentialsFile string
	FolderID        string
	FolderPath      string
}

// FactsConfig selects where the raw JSON fact files are read from.
// Source is one of "dir", "s3" or "drive".
type FactsConfig struct {
	Source         string
	Dir            string
	ManagementFile string
	EmployeesFile  string
	ProductFile    string
}

type ReportConfig struct {
	Timezone         string
	PageCapacity     int
	ReturnToken      string
	FontPath         string
	FontFamily       string
	WorkerCount      int
	TimeoutSeconds   int
	ExcludedStoreIDs []string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Enabled:  viper.GetBool("DB_ENABLED"),
				URL:      viper.GetString("DATABASE_URL"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				LogLevel:  viper.GetString("LOG_LEVEL"),
				LogFormat: viper.GetString("LOG_FORMAT"),
				OutputDir: viper.GetString("APP_OUTPUT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ReportTTLSeconds: viper.GetInt("CACHE_REPORT_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:       viper.GetBool("S3_ENABLED"),
				Endpoint:      viper.GetString("S3_ENDPOINT"),
				AccessKey:     viper.GetString("S3_ACCESS_KEY"),
				SecretKey:     viper.GetString("S3_SECRET_KEY"),
				Bucket:        viper.GetString("S3_BUCKET"),
				Region:        viper.GetString("S3_REGION"),
				UseSSL:        viper.GetBool("S3_USE_SSL"),
				FactsPrefix:   viper.GetString("S3_FACTS_PREFIX"),
				ReportsPrefix: viper.GetString("S3_REPORTS_PREFIX"),
			},
			Drive: DriveConfig{
				CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				CredentialsFile: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_FILE"),
				FolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
				FolderPath:      viper.GetString("GOOGLE_DRIVE_FOLDER_PATH"),
			},
			Facts: FactsConfig{
				Source:         viper.GetString("FACTS_SOURCE"),
				Dir:            viper.GetString("FACTS_DIR"),
				ManagementFile: viper.GetString("FACTS_MANAGEMENT_FILE"),
				EmployeesFile:  viper.GetString("FACTS_EMPLOYEES_FILE"),
				ProductFile:    viper.GetString("FACTS_PRODUCT_FILE"),
			},
			Report: ReportConfig{
				Timezone:         viper.GetString("REPORT_TIMEZONE"),
				PageCapacity:     viper.GetInt("REPORT_PAGE_CAPACITY"),
				ReturnToken:      viper.GetString("REPORT_RETURN_TOKEN"),
				FontPath:         viper.GetString("REPORT_FONT_PATH"),
				FontFamily:       viper.GetString("REPORT_FONT_FAMILY"),
				WorkerCount:      viper.GetInt("REPORT_WORKER_COUNT"),
				TimeoutSeconds:   viper.GetInt("REPORT_TIMEOUT_SECONDS"),
				ExcludedStoreIDs: viper.GetStringSlice("REPORT_EXCLUDED_STORE_IDS"),
			},
		}
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("DB_ENABLED", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "storepulse")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("APP_OUTPUT_DIR", "./data/reports")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_REPORT_TTL_SECONDS", 300)
	viper.SetDefault("S3_ENABLED", false)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_USE_SSL", true)
	viper.SetDefault("S3_FACTS_PREFIX", "facts/")
	viper.SetDefault("S3_REPORTS_PREFIX", "reports/")
	viper.SetDefault("FACTS_SOURCE", "dir")
	viper.SetDefault("FACTS_DIR", "./data/facts")
	viper.SetDefault("FACTS_MANAGEMENT_FILE", "management_data.json")
	viper.SetDefault("FACTS_EMPLOYEES_FILE", "employees_data.json")
	viper.SetDefault("FACTS_PRODUCT_FILE", "product_data.json")
	viper.SetDefault("REPORT_TIMEZONE", "Asia/Riyadh")
	viper.SetDefault("REPORT_PAGE_CAPACITY", 38)
	viper.SetDefault("REPORT_RETURN_TOKEN", "مرتجع")
	viper.SetDefault("REPORT_FONT_PATH", "")
	viper.SetDefault("REPORT_FONT_FAMILY", "Amiri")
	viper.SetDefault("REPORT_WORKER_COUNT", 4)
	viper.SetDefault("REPORT_TIMEOUT_SECONDS", 60)
	viper.SetDefault("REPORT_EXCLUDED_STORE_IDS", []string{"0", "9999"})
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
