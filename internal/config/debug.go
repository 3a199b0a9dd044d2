package config

import "os"

func IsDebug() bool {
	return os.Getenv("SCREENMATE_DEBUG") == "1"
}
