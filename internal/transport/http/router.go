package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/logger"
)

// Services bundles the use cases the router exposes.
type Services struct {
	Auth        *app.AuthService
	Users       *app.UserService
	Authoring   *app.AuthoringService
	Submissions *app.SubmissionService
	Reports     *app.ReportService
}

type RouterConfig struct {
	AllowOrigins []string
}

func NewRouter(svc Services, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(cors.New(corsConfig(cfg.AllowOrigins)))
	r.Use(Authenticate(svc.Auth))

	users := NewUserHandler(svc.Auth, svc.Users, log)
	quizzes := NewQuizHandler(svc.Authoring, log)
	questions := NewQuestionHandler(svc.Authoring, log)
	submissions := NewSubmissionHandler(svc.Submissions, log)
	reports := NewReportHandler(svc.Reports, log)
	results := NewResultsHandler(svc.Submissions, log)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	u := r.Group("/users")
	{
		u.POST("/register", users.Register)
		u.POST("/login", users.Login)
		u.GET("", RequireAdmin(), users.List)
		u.GET("/:id", RequireAuth(), users.Get)
		u.PUT("/:id", RequireAuth(), users.Update)
		u.DELETE("/:id", RequireAdmin(), users.Delete)
	}

	qz := r.Group("/quizzes")
	{
		qz.GET("", quizzes.List)
		qz.GET("/unpublished", quizzes.Unpublished)
		qz.GET("/:id", quizzes.Get)
		qz.GET("/:id/paper", quizzes.Paper)
		qz.POST("", RequireAuth(), quizzes.Create)
		qz.PUT("/:id", RequireAuth(), quizzes.Update)
		qz.DELETE("/:id", RequireAuth(), quizzes.Delete)
	}

	q := r.Group("/questions")
	{
		q.GET("/quiz/:quiz_id", questions.ListByQuiz)
		q.GET("/:id", questions.Get)
		q.GET("/:id/options", questions.ListOptions)
		q.GET("/options/:option_id", questions.GetOption)
		q.POST("", RequireAuth(), questions.Create)
		q.PUT("/:id", RequireAuth(), questions.Update)
		q.DELETE("/:id", RequireAuth(), questions.Delete)
		q.POST("/:id/options", RequireAuth(), questions.CreateOption)
		q.PUT("/options/:option_id", RequireAuth(), questions.UpdateOption)
		q.DELETE("/options/:option_id", RequireAuth(), questions.DeleteOption)
	}

	s := r.Group("/submissions", RequireAuth())
	{
		s.POST("", submissions.Start)
		s.GET("", submissions.List)
		s.GET("/admin/statistics", RequireAdmin(), reports.Statistics)
		s.GET("/admin/submissions", RequireAdmin(), reports.Submissions)
		s.GET("/:id", submissions.Get)
		s.POST("/:id/answers", submissions.RecordAnswer)
		s.PUT("/:id/complete", submissions.Complete)
	}

	admin := r.Group("/admin", RequireAdmin())
	{
		admin.GET("/statistics", reports.Statistics)
		admin.GET("/submissions", reports.Submissions)
	}

	r.GET("/ws/quizzes/:id/results", RequireAdmin(), results.ServeResults)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestHeader},
		ExposeHeaders: []string{requestHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
