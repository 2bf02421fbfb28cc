package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"github.com/sirupsen/logrus"

	"github.com/inkhub/content-go/internal/config"
	"github.com/inkhub/content-go/internal/database"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	var action = flag.String("action", "up", "Migration action: up, down, version, goto")
	var version = flag.Int("version", 0, "Target version for goto")
	var path = flag.String("path", "./migrations", "Migration files directory")
	flag.Parse()

	// 初始化配置
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := sql.Open("postgres", config.AppConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 测试连接
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// 创建日志器
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	// 创建迁移管理器
	migrationManager, err := database.NewMigrationManager(db, *path, logger)
	if err != nil {
		log.Fatalf("Failed to create migration manager: %v", err)
	}
	defer migrationManager.Close()

	// 执行迁移操作
	switch *action {
	case "up":
		fmt.Println("Running migrations up...")
		if err := migrationManager.Up(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		fmt.Println("Migrations completed successfully")

	case "down":
		fmt.Println("Rolling back last migration...")
		if err := migrationManager.Down(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		fmt.Println("Rollback completed successfully")

	case "version":
		current, dirty, err := migrationManager.Version()
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		fmt.Printf("Current version: %d", current)
		if dirty {
			fmt.Printf(" (dirty)")
		}
		fmt.Println()

	case "goto":
		if *version <= 0 {
			log.Fatal("goto requires -version > 0")
		}
		fmt.Printf("Migrating to version %d...\n", *version)
		if err := migrationManager.MigrateTo(uint(*version)); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migration completed successfully")

	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}
