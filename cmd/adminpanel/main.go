package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/sekolahdigital/adminpanel/internal/aitools"
	"github.com/sekolahdigital/adminpanel/internal/assistant"
	"github.com/sekolahdigital/adminpanel/internal/handler"
	appI18n "github.com/sekolahdigital/adminpanel/internal/i18n"
	"github.com/sekolahdigital/adminpanel/internal/model"
	"github.com/sekolahdigital/adminpanel/internal/retrieval"
	"github.com/sekolahdigital/adminpanel/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "adminpanel",
		Short: "School exam admin panel with an AI data assistant",
	}

	serve := serveCmd()
	root.AddCommand(serve, askCmd(), statsCmd(), seedCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `adminpanel --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func commonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "adminpanel.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func assistantFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("gemini-key", "", "Gemini API key (or set SEKOLAH_GEMINI_KEY / GEMINI_API_KEY)")
	f.String("gemini-model", "gemini-2.0-flash", "Gemini model name")
	f.Int("max-rounds", 5, "Tool-calling round budget per question")
	f.Int("max-context-size", 8000, "Character ceiling for assembled context")
	f.Duration("call-timeout", 60*time.Second, "Wall-clock timeout per assistant question")
	f.Bool("smart-retrieval", false, "Use heuristic context assembly instead of tool calling")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin panel HTTP server",
		RunE:  runServe,
	}
	commonFlags(cmd)
	assistantFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "id", "Panel language (id, en)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set SEKOLAH_ADMIN_PASSWORD)")
	return cmd
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a one-shot question about school data",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	commonFlags(cmd)
	assistantFlags(cmd)
	cmd.Flags().StringP("lang", "l", "id", "Message language (id, en)")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics as a table",
		RunE:  runStats,
	}
	commonFlags(cmd)
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the admin user and import fixture data",
		RunE:  runSeed,
	}
	commonFlags(cmd)
	f := cmd.Flags()
	f.String("admin-password", "", "Initial admin password (or set SEKOLAH_ADMIN_PASSWORD)")
	f.String("fixture", "", "Path to a JSON fixture with students/exams/questions/results")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	// Best-effort: local .env files hold the Gemini key in development.
	_ = godotenv.Load()

	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SEKOLAH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("adminpanel")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/adminpanel")
	v.AddConfigPath("/etc/adminpanel")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func geminiKey(v *viper.Viper) string {
	if key := v.GetString("gemini-key"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}

func assistantConfig(v *viper.Viper) model.AssistantConfig {
	return model.AssistantConfig{
		Model:          v.GetString("gemini-model"),
		MaxRounds:      v.GetInt("max-rounds"),
		MaxContextSize: v.GetInt("max-context-size"),
		CallTimeout:    v.GetDuration("call-timeout"),
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := seedAdmin(ctx, db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := assistantConfig(v)
	builder := retrieval.New(db, cfg.MaxContextSize)
	ai, err := assistant.New(ctx, geminiKey(v), aitools.New(db), builder, cfg)
	if err != nil {
		return fmt.Errorf("create assistant: %w", err)
	}
	defer ai.Close()

	h := handler.New(db, ai, builder, handler.Config{
		SecureCookies: v.GetBool("secure-cookies"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", cfg.Model,
		"lang", lang,
		"max_rounds", cfg.MaxRounds,
		"max_context_size", cfg.MaxContextSize,
	)
	return http.ListenAndServe(addr, r)
}

func runAsk(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	ctx := cmd.Context()
	cfg := assistantConfig(v)
	builder := retrieval.New(db, cfg.MaxContextSize)
	ai, err := assistant.New(ctx, geminiKey(v), aitools.New(db), builder, cfg)
	if err != nil {
		return fmt.Errorf("create assistant: %w", err)
	}
	defer ai.Close()

	color.Cyan("Pertanyaan: %s", args[0])
	res, err := ai.Analyze(ctx, args[0], assistant.Options{
		UseSmartRetrieval:      v.GetBool("smart-retrieval"),
		IncludeRecommendations: true,
	})
	if err != nil {
		color.Red("%v", err)
		return err
	}

	fmt.Println()
	fmt.Println(res.Response)
	fmt.Println()
	color.Yellow("Sumber data: %s", strings.Join(res.ContextUsed, ", "))
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	stats, err := retrieval.New(db, 0).Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("dashboard stats: %w", err)
	}

	color.Yellow("\nStatistik Sekolah")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metrik", "Nilai"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.Append([]string{"Total Siswa", fmt.Sprintf("%d", stats.TotalStudents)})
	table.Append([]string{"Total Ujian", fmt.Sprintf("%d", stats.TotalExams)})
	table.Append([]string{"Ujian Aktif", fmt.Sprintf("%d", stats.ActiveExams)})
	table.Append([]string{"Total Percobaan", fmt.Sprintf("%d", stats.TotalAttempts)})
	table.Append([]string{"Nilai Rata-rata", fmt.Sprintf("%.1f", stats.AverageScore)})
	table.Append([]string{"Tingkat Kelulusan", fmt.Sprintf("%.1f%%", stats.PassRate)})
	table.Append([]string{"Ukuran Sampel", fmt.Sprintf("%d", stats.SampleSize)})
	table.Render()
	return nil
}

// seedFile is the JSON fixture accepted by the seed command.
type seedFile struct {
	Students  []model.Student     `json:"students"`
	Exams     []model.Exam        `json:"exams"`
	Questions []model.Question    `json:"questions"`
	Results   []model.ExamAttempt `json:"results"`
}

func runSeed(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := seedAdmin(ctx, db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	path := v.GetString("fixture")
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var fixture seedFile
	if err := json.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, st := range fixture.Students {
		if _, err := db.InsertStudent(ctx, st); err != nil {
			return fmt.Errorf("insert student %q: %w", st.Name, err)
		}
	}
	for _, e := range fixture.Exams {
		if _, err := db.InsertExam(ctx, e); err != nil {
			return fmt.Errorf("insert exam %q: %w", e.Title, err)
		}
	}
	for _, q := range fixture.Questions {
		if _, err := db.InsertQuestion(ctx, q); err != nil {
			return fmt.Errorf("insert question %d of exam %s: %w", q.QuestionNumber, q.ExamID, err)
		}
	}
	for _, a := range fixture.Results {
		if _, err := db.InsertAttempt(ctx, a); err != nil {
			return fmt.Errorf("insert attempt for %q: %w", a.StudentName, err)
		}
	}

	slog.Info("imported fixture",
		"path", path,
		"students", len(fixture.Students),
		"exams", len(fixture.Exams),
		"questions", len(fixture.Questions),
		"results", len(fixture.Results),
	)
	return nil
}

func seedAdmin(ctx context.Context, db *store.Store, password string) error {
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or SEKOLAH_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(ctx, model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
