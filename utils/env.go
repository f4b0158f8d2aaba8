package utils

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func init() {
	_ = godotenv.Load()
}

func MustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("Missing required environment variable: " + key)
	}
	return val
}

func GetEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// GetEnvInt returns the integer value of key, or defaultVal when unset or below floor
func GetEnvInt(key string, defaultVal, floor int) int {
	v, err := strconv.Atoi(GetEnvOrDefault(key, strconv.Itoa(defaultVal)))
	if err != nil || v < floor {
		return defaultVal
	}
	return v
}
