// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"slawbackend/internal/logger"
)

// Variables available everywhere
var (
	baseDir       string
	dataDirectory string
	logsDirectory string

	ordersAPIBase string
	authAPIBase   string
	menusAPIBase  string

	credentialsFile string
	lastSyncFile    string
	databasePath    string
)

const (
	defaultOrdersAPIBase = "https://ws-api.toasttab.com/orders/v2"
	defaultAuthAPIBase   = "https://ws-api.toasttab.com/authentication/v1"
	defaultMenusAPIBase  = "https://ws-api.toasttab.com/menus/v2"
)

//
// --- Utility Helpers ---
//

// Helper: get a setting based on ENVIRONMENT (dev or prod)
func GetEnvBasedSetting(base string) string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return os.Getenv(fmt.Sprintf("%s_%s", base, strings.ToUpper(env)))
}

// Helper: log which environment is running
func LogCurrentEnvironment() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	if env == "dev" {
		logger.LogInfo("Running in development environment")
	} else {
		logger.LogInfo("Running in production environment")
	}
}

//
// --- Loaders ---
//

// LoadEnv reads .env file
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not determine working directory: %v", err)
	} else {
		log.Printf("Current working directory: %s", wd)
	}

	err = godotenv.Load(".env")
	if err != nil {
		log.Printf("No .env file found in %s. Using system environment variables.", wd)
	} else {
		log.Printf("Loaded environment variables from .env file in %s", wd)
	}
}

// LoggerConfig returns a logger.Config struct populated from environment
func LoggerConfig() logger.Config {
	logDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logDir == "" {
		logDir = "./logs"
	}

	logFormat := GetEnvBasedSetting("LOG_FILE_FORMAT")
	if logFormat == "" {
		logFormat = "inventory_%s.log"
	}

	timezone := os.Getenv("TIME_ZONE")
	if timezone == "" {
		timezone = "Local"
	}

	return logger.Config{
		LogsDirectory: logDir,
		LogFileFormat: logFormat,
		TimeZone:      timezone,
	}
}

// ConfigurePaths sets up folders and paths
func ConfigurePaths() {
	wd, err := os.Getwd()
	if err != nil {
		logger.LogFatal("Failed to get working directory: %v", err)
	}
	baseDir = wd

	dataDir := GetEnvBasedSetting("DATA_DIRECTORY")
	if dataDir != "" {
		dataDirectory = dataDir
	} else {
		dataDirectory = filepath.Join(baseDir, "data")
	}

	logsDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logsDir != "" {
		logsDirectory = logsDir
	} else {
		logsDirectory = filepath.Join(baseDir, "logs")
	}

	if err := os.MkdirAll(dataDirectory, 0775); err != nil {
		logger.LogFatal("Failed to create data directory '%s': %v", dataDirectory, err)
	}

	credentialsFile = filepath.Join(dataDirectory, "toast_credentials.txt")
	lastSyncFile = filepath.Join(dataDirectory, "last_sync_time.txt")
	databasePath = filepath.Join(dataDirectory, "inventory.db")
}

// LoadToastConfig sets up the upstream Toast API endpoints. Base URLs are
// overridable from the environment so tests can point at a local server.
func LoadToastConfig() {
	ordersAPIBase = os.Getenv("TOAST_ORDERS_API_BASE")
	if ordersAPIBase == "" {
		ordersAPIBase = defaultOrdersAPIBase
	}

	authAPIBase = os.Getenv("TOAST_AUTH_API_BASE")
	if authAPIBase == "" {
		authAPIBase = defaultAuthAPIBase
	}

	menusAPIBase = os.Getenv("TOAST_MENUS_API_BASE")
	if menusAPIBase == "" {
		menusAPIBase = defaultMenusAPIBase
	}

	logger.LogInfo("Toast orders API base: %s", ordersAPIBase)
}

//
// --- Getters (exported) ---
//

func DataDirectory() string {
	return dataDirectory
}

func LogsDirectory() string {
	return logsDirectory
}

func OrdersAPIBase() string {
	return ordersAPIBase
}

func AuthAPIBase() string {
	return authAPIBase
}

func MenusAPIBase() string {
	return menusAPIBase
}

func CredentialsFile() string {
	return credentialsFile
}

func LastSyncFile() string {
	return lastSyncFile
}

func DatabasePath() string {
	return databasePath
}
