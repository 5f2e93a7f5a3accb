package main

import (
	"errors"
	"flag"

	"gorm.io/gorm"

	"github.com/BailinYe/Resume-Modifier-sub002/config"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/db"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/util"
)

// Seeds a local database with an admin account and a demo user that
// already owns a resume, so the API is usable right after migrate.
func main() {
	adminEmail := flag.String("admin-email", "admin@resumemodifier.local", "admin account email")
	adminPassword := flag.String("admin-password", "Admin123!", "admin account password")
	demo := flag.Bool("demo", true, "also create a demo user with a sample resume")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if err := seedUser(*adminEmail, *adminPassword, "Administrator", model.RoleAdmin); err != nil {
		logger.Fatal("Failed to seed admin user", err)
	}

	if *demo {
		if err := seedDemoUser(); err != nil {
			logger.Fatal("Failed to seed demo user", err)
		}
	}

	logger.Info("Seed complete", nil)
}

func seedUser(email, password, name string, role model.UserRole) error {
	conn := db.GetDB()

	var existing model.User
	err := conn.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logger.Info("User already exists, skipping", map[string]interface{}{"email": email})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	if err := conn.Create(&user).Error; err != nil {
		return err
	}

	logger.Info("Created user", map[string]interface{}{
		"email": email,
		"role":  string(role),
	})
	return nil
}

func seedDemoUser() error {
	const demoEmail = "demo@resumemodifier.local"

	if err := seedUser(demoEmail, "DemoPass1!", "Demo User", model.RoleUser); err != nil {
		return err
	}

	conn := db.GetDB()

	var user model.User
	if err := conn.Where("email = ?", demoEmail).First(&user).Error; err != nil {
		return err
	}

	var count int64
	if err := conn.Model(&model.Resume{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	resume := model.Resume{
		UserID:     user.ID,
		Title:      "Software Engineer Resume",
		TemplateID: "classic",
		Content: `{
  "summary": "Backend engineer with 5 years of experience building Go services.",
  "experience": [
    {
      "company": "Acme Corp",
      "title": "Senior Software Engineer",
      "start": "2021-03",
      "end": "present",
      "highlights": ["Led migration of a monolith to services", "Cut p99 latency by 40%"]
    }
  ],
  "skills": ["Go", "PostgreSQL", "Redis", "AWS"]
}`,
	}
	if err := conn.Create(&resume).Error; err != nil {
		return err
	}

	logger.Info("Created demo resume", map[string]interface{}{
		"user_id":   user.ID,
		"resume_id": resume.ID,
	})
	return nil
}
