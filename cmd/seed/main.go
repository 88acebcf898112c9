// seed 从 YAML 批量登记餐食。
//
//	seed meals --file configs/meals.example.yaml [--dry-run]
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
