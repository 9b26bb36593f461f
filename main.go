package main

import (
	"log"

	"hrflow-backend/cmd/api"
	canddelivery "hrflow-backend/internal/candidate/delivery"
	canddomain "hrflow-backend/internal/candidate/domain"
	candrepo "hrflow-backend/internal/candidate/repository"
	candusecase "hrflow-backend/internal/candidate/usecase"
	convdelivery "hrflow-backend/internal/conversation/delivery"
	convdomain "hrflow-backend/internal/conversation/domain"
	convrepo "hrflow-backend/internal/conversation/repository"
	convusecase "hrflow-backend/internal/conversation/usecase"
	"hrflow-backend/pkg/ai"
	"hrflow-backend/pkg/calendar"
	"hrflow-backend/pkg/config"
	"hrflow-backend/pkg/database"
	"hrflow-backend/pkg/gmail"
	"hrflow-backend/pkg/imap"
)

func main() {
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("[Main] database connection failed: %v", err)
	}

	if err := db.AutoMigrate(
		&canddomain.Candidate{},
		&canddomain.HiringManager{},
		&canddomain.Department{},
		&canddomain.Employee{},
		&canddomain.JobDescription{},
		&canddomain.Referral{},
		&convdomain.Message{},
		&convdomain.ConversationEvent{},
		&convdomain.CandidateStatus{},
		&convdomain.InterviewSlot{},
		&convdomain.IngestAttempt{},
	); err != nil {
		log.Fatalf("[Main] migration failed: %v", err)
	}

	candidateRepo := candrepo.NewGormCandidateRepository(db)
	managerRepo := candrepo.NewGormManagerRepository(db)
	departmentRepo := candrepo.NewGormDepartmentRepository(db)
	employeeRepo := candrepo.NewGormEmployeeRepository(db)
	referralRepo := candrepo.NewGormReferralRepository(db)
	jdRepo := candrepo.NewGormJobDescriptionRepository(db)
	store := convrepo.NewGormStore(db)

	var mail convusecase.MailTransport
	switch cfg.MailProvider {
	case "imap":
		mail = imap.NewService(cfg.IMAPHost, cfg.SMTPHost, cfg.IMAPUsername, cfg.IMAPPassword,
			cfg.SenderName, cfg.SenderEmail)
		log.Println("[Main] using IMAP/SMTP mail transport")
	default:
		mail = gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.GoogleAccessToken, cfg.GoogleRefreshToken, cfg.SenderName, cfg.SenderEmail)
		log.Println("[Main] using Gmail mail transport")
	}

	calendarSvc := calendar.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.GoogleAccessToken, cfg.GoogleRefreshToken)

	aiSvc, err := ai.NewService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatalf("[Main] AI provider setup failed: %v", err)
	}

	negotiation := convusecase.NewNegotiationUsecase(
		store, candidateRepo, managerRepo, mail, calendarSvc, aiSvc,
		convusecase.Options{
			ToleranceMinutes: cfg.ToleranceMinutes,
			FetchLimit:       cfg.FetchLimit,
			OpenSlotLimit:    cfg.OpenSlotLimit,
			MaxAttempts:      cfg.MaxIngestAttempts,
			DefaultTimezone:  cfg.DefaultTimezone,
			SenderEmail:      cfg.SenderEmail,
		})

	screening := candusecase.NewScreeningUsecase(
		candidateRepo, managerRepo, employeeRepo, referralRepo, jdRepo,
		store, mail, aiSvc,
		candusecase.Options{
			ScoreThreshold:      cfg.ScoreThreshold,
			AutoRejectGraceDays: cfg.AutoRejectGraceDays,
			SenderEmail:         cfg.SenderEmail,
			ResumeDir:           cfg.ResumeDir,
			JDDir:               cfg.JDDir,
		})

	scheduler := candusecase.NewAutoRejectScheduler(screening, cfg.AutoRejectInterval)
	scheduler.Start()
	defer scheduler.Stop()

	candidateHandler := canddelivery.NewHandler(screening, managerRepo, departmentRepo,
		employeeRepo, referralRepo, candidateRepo)
	conversationHandler := convdelivery.NewHandler(negotiation, store, candidateRepo)

	router := api.NewRouter(candidateHandler, conversationHandler)
	log.Printf("[Main] listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[Main] server failed: %v", err)
	}
}
