// 관리자 계정 생성 스크립트.
//
//	go run scripts/create_admin.go -username student_council -password '...'
//	go run scripts/create_admin.go -username student_council -password '...' -update
package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"suggestbox_backend/internal/config"
	"suggestbox_backend/internal/model"
	"suggestbox_backend/pkg/database"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type scriptConfig struct {
	Database config.DatabaseConfig `yaml:"database"`
}

func main() {
	username := flag.String("username", "", "관리자 아이디")
	password := flag.String("password", "", "관리자 비밀번호")
	update := flag.Bool("update", false, "계정이 이미 있으면 비밀번호를 갱신한다")
	configPath := flag.String("config", "configs/config.yaml", "설정 파일 경로")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("usage: create_admin -username <name> -password <password> [-update]")
	}
	if len(*password) < 8 {
		log.Fatal("비밀번호는 8자 이상이어야 합니다")
	}

	raw, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg scriptConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, "release")
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var admin model.Admin
	err = db.Where("username = ?", *username).First(&admin).Error
	switch {
	case err == nil:
		if !*update {
			log.Fatalf("admin %q already exists (use -update to change the password)", *username)
		}
		admin.PasswordHash = string(hash)
		if err := db.Save(&admin).Error; err != nil {
			log.Fatalf("failed to update admin: %v", err)
		}
		log.Printf("admin %q password updated", *username)
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = model.Admin{Username: *username, PasswordHash: string(hash)}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("failed to create admin: %v", err)
		}
		log.Printf("admin %q created", *username)
	default:
		log.Fatalf("failed to query admin: %v", err)
	}
}
