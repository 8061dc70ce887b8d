package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lead-verify/internal/application/lead"
	"github.com/lead-verify/internal/application/notify"
	"github.com/lead-verify/internal/application/verification"
	"github.com/lead-verify/internal/config"
	"github.com/lead-verify/internal/transport/http/handler"
	appmiddleware "github.com/lead-verify/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustedProxy {
		// Rewrites RemoteAddr from X-Forwarded-For / X-Real-Ip, which the
		// rate limiter keys on.
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Applied to every endpoint that sends a message or checks a credential.
	var sensitiveRL appmiddleware.Limiter
	if deps.Redis != nil {
		sensitiveRL = appmiddleware.NewRedisRateLimiter(deps.Redis, "lead-verify:rl", rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	} else {
		sensitiveRL = appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	leadSvc := lead.NewService(lead.ServiceDeps{
		LeadRepo:      deps.LeadRepo,
		EmailSender:   notify.NewEmailSender(deps.Mailer, cfg.AppBaseURL),
		EmailTokenTTL: cfg.EmailTokenTTL,
	})
	verificationSvc := verification.NewService(verification.ServiceDeps{
		LeadRepo:    deps.LeadRepo,
		OTPSender:   notify.NewOTPSender(deps.SMSGateway, cfg.SMSCountryCode, cfg.PhoneOTPTTL),
		PhoneOTPTTL: cfg.PhoneOTPTTL,
	})

	healthH := handler.NewHealthHandler(deps.LeadRepo)
	leadH := handler.NewLeadHandler(leadSvc)
	verifyH := handler.NewVerificationHandler(verificationSvc)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Limit(sensitiveRL))

			r.Post("/leads", leadH.Create)
			r.Post("/send-verification", leadH.SendVerification)
			r.Post("/verify-email", verifyH.VerifyEmail)
			r.Post("/send-otp", verifyH.SendOTP)
			r.Post("/verify-otp", verifyH.VerifyOTP)
		})
	})

	return r
}
